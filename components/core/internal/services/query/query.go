package query

import (
	"github.com/GrimoireLabs/grimoire/components/core/internal/adapters/mongodb/spell"
	"github.com/GrimoireLabs/grimoire/components/core/internal/adapters/postgres/generation"
	"github.com/GrimoireLabs/grimoire/components/core/internal/adapters/postgres/ledger"
	"github.com/GrimoireLabs/grimoire/components/core/internal/adapters/postgres/spellcast"
	"github.com/GrimoireLabs/grimoire/components/core/internal/adapters/postgres/toolusage"
	"github.com/GrimoireLabs/grimoire/components/core/internal/adapters/redis"
	"github.com/GrimoireLabs/grimoire/components/core/internal/pricing"
	"github.com/GrimoireLabs/grimoire/components/core/internal/registry"
)

// UseCase is a struct that aggregates the read-side operations of the core.
type UseCase struct {
	GenerationRepo generation.Repository
	LedgerRepo     ledger.Repository
	CastRepo       spellcast.Repository
	SpellRepo      spell.Repository
	UsageRepo      toolusage.Repository
	RedisRepo      redis.RedisRepository

	Registry *registry.Registry
	Quoter   *pricing.Quoter
}
