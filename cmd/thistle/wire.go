package main

import (
	"context"

	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectoinject/ectocontainer"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/thistle/config"
	"github.com/Ramsey-B/thistle/internal/repositories/activevalue"
	"github.com/Ramsey-B/thistle/internal/repositories/contact"
	"github.com/Ramsey-B/thistle/internal/repositories/memory"
	"github.com/Ramsey-B/thistle/internal/repositories/prisonerrestriction"
	"github.com/Ramsey-B/thistle/internal/repositories/referencecode"
	"github.com/Ramsey-B/thistle/internal/repositories/relationship"
	"github.com/Ramsey-B/thistle/pkg/consolidation"
	"github.com/Ramsey-B/thistle/pkg/database"
	"github.com/Ramsey-B/thistle/pkg/events"
	"github.com/Ramsey-B/thistle/pkg/merging"
	"github.com/Ramsey-B/thistle/pkg/models"
	"github.com/Ramsey-B/thistle/pkg/reconciliation"
	"github.com/Ramsey-B/thistle/pkg/refdata"
	"github.com/Ramsey-B/thistle/pkg/restrictions"
	"github.com/Ramsey-B/thistle/pkg/syncservice"
)

// stores is every port the service needs, backed by postgres or by memory.
type stores struct {
	tx            database.TxRunner
	relationships interface {
		consolidation.RelationshipStore
		reconciliation.RelationshipReader
	}
	relationshipRestrictions consolidation.RestrictionStore
	values                   merging.Store
	prisonerRestrictions     restrictions.Store
	contacts                 reconciliation.ContactReader
	codes                    refdata.CodeLookup
}

func postgresStores(db database.DB, logger ectologger.Logger) stores {
	return stores{
		tx:                       db,
		relationships:            relationship.NewRepository(db, logger),
		relationshipRestrictions: relationship.NewRestrictionRepository(db, logger),
		values:                   activevalue.NewRepository(db, logger),
		prisonerRestrictions:     prisonerrestriction.NewRepository(db, logger),
		contacts:                 contact.NewRepository(db, logger),
		codes:                    referencecode.NewRepository(db, logger),
	}
}

// memoryStores seeds the same reference codes the migrations do.
func memoryStores(store *memory.Store) stores {
	codes := store.ReferenceCodes()
	codes.Seed(models.GroupSocialRelationship, "MOT", "FA", "BRO", "SIS", "WIFE", "HUS", "FRI")
	codes.Seed(models.GroupOfficialRelationship, "DR", "POL", "OFS", "SOL")
	codes.Seed(models.GroupRestriction, "BAN", "CCTV", "CHILD", "CLOSED", "NONCON", "PREINF")
	codes.Seed(models.GroupDomesticStatus, "S", "M", "D", "P", "W", "N")

	return stores{
		tx:                       store,
		relationships:            store.Relationships(),
		relationshipRestrictions: store.RelationshipRestrictions(),
		values:                   store.ActiveValues(),
		prisonerRestrictions:     store.PrisonerRestrictions(),
		contacts:                 store.Contacts(),
		codes:                    codes,
	}
}

func newService(cfg *config.Config, s stores, cache refdata.Cache, publisher events.Publisher, logger ectologger.Logger) *syncservice.Service {
	validator := refdata.NewValidator(cache, s.codes, cfg.ReferenceDataTTL, logger)

	return syncservice.NewService(syncservice.Dependencies{
		Tx:            s.tx,
		Values:        merging.NewRecencyMerger(s.values, logger),
		Relationships: consolidation.NewConsolidator(s.relationships, s.relationshipRestrictions, validator, logger),
		Restrictions:  restrictions.NewMerger(s.prisonerRestrictions, validator, logger),
		Snapshots: reconciliation.NewBuilder(
			s.contacts,
			s.relationships,
			s.relationshipRestrictions,
			s.values,
			s.prisonerRestrictions,
			logger,
		),
		Validator: validator,
		Emitter:   events.NewEmitter(publisher, logger),
	}, logger)
}

// containerID is the dependency container the sync routes resolve from.
const containerID = "thistle"

func newContainer(service *syncservice.Service, logger ectologger.Logger) (ectocontainer.DIContainer, error) {
	cfg := ectoinject.DefaultContainerConfig
	cfg.ID = containerID
	cfg.LoggerConfig = &ectocontainer.DIContainerLoggerConfig{
		Enabled: true,
		LogFunc: func(ctx context.Context, _ string, msg string) {
			logger.WithContext(ctx).Debug(msg)
		},
	}

	container, err := ectoinject.NewDIContainer(cfg)
	if err != nil {
		return nil, err
	}
	if err := ectoinject.RegisterInstance[*syncservice.Service](container, service); err != nil {
		return nil, err
	}
	if err := ectoinject.RegisterInstance[ectologger.Logger](container, logger); err != nil {
		return nil, err
	}
	return container, nil
}
