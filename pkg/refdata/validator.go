// Package refdata checks coded fields against the reference_codes table,
// caching answers in redis.
package refdata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/thistle/pkg/metrics"
	"github.com/Ramsey-B/thistle/pkg/models"
	"github.com/Ramsey-B/thistle/pkg/redis"
	"github.com/Ramsey-B/thistle/pkg/tracing"
)

const (
	cachedValid   = "1"
	cachedInvalid = "0"
)

type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

type CodeLookup interface {
	IsValidCode(ctx context.Context, group, code string) (bool, error)
}

type Validator struct {
	cache  Cache
	lookup CodeLookup
	ttl    time.Duration
	logger ectologger.Logger
}

// NewValidator accepts a nil cache, in which case every check hits lookup.
func NewValidator(cache Cache, lookup CodeLookup, ttl time.Duration, logger ectologger.Logger) *Validator {
	return &Validator{
		cache:  cache,
		lookup: lookup,
		ttl:    ttl,
		logger: logger,
	}
}

// ValidateAll returns a 400 naming every code that is not active in its group.
func (v *Validator) ValidateAll(ctx context.Context, refs ...models.CodeRef) error {
	ctx, span := tracing.StartSpan(ctx, "refdata.Validator.ValidateAll")
	defer span.End()

	var unique []models.CodeRef
	for _, ref := range refs {
		if !ectolinq.Contains(unique, ref) {
			unique = append(unique, ref)
		}
	}

	var invalid []string
	for _, ref := range unique {
		valid, err := v.isValid(ctx, ref)
		if err != nil {
			return err
		}
		if !valid {
			invalid = append(invalid, fmt.Sprintf("%s/%s", ref.Group, ref.Code))
		}
	}

	if len(invalid) > 0 {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid reference codes: %s", strings.Join(invalid, ", "))
	}
	return nil
}

func (v *Validator) isValid(ctx context.Context, ref models.CodeRef) (bool, error) {
	key := cacheKey(ref)

	if v.cache != nil {
		cached, err := v.cache.Get(ctx, key)
		switch {
		case err == nil:
			metrics.ReferenceDataLookups.WithLabelValues("hit").Inc()
			return cached == cachedValid, nil
		case errors.Is(err, redis.Nil):
			metrics.ReferenceDataLookups.WithLabelValues("miss").Inc()
		default:
			metrics.ReferenceDataLookups.WithLabelValues("error").Inc()
			v.logger.WithContext(ctx).WithError(err).WithField("key", key).Warn("Reference data cache read failed")
		}
	}

	valid, err := v.lookup.IsValidCode(ctx, ref.Group, ref.Code)
	if err != nil {
		return false, err
	}

	if v.cache != nil {
		value := cachedInvalid
		if valid {
			value = cachedValid
		}
		if err := v.cache.Set(ctx, key, value, v.ttl); err != nil {
			v.logger.WithContext(ctx).WithError(err).WithField("key", key).Warn("Reference data cache write failed")
		}
	}
	return valid, nil
}

func cacheKey(ref models.CodeRef) string {
	return fmt.Sprintf("refdata:%s:%s", ref.Group, ref.Code)
}
