// Package config resolves all environment-derived configuration for reflectd
// once at process start. Handlers receive the resolved Config instead of
// reading the environment ambiently, which keeps the agent-id resolution order
// (override -> env -> legacy env -> fallback) testable in isolation.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/creanalyst/reflectd/internal/flow"
	"github.com/creanalyst/reflectd/internal/models"
)

// AgentSlots is the number of live-agent slots per module.
const AgentSlots = 6

// Default model identifiers used when the environment does not name one.
const (
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-sonnet-4-20250514"
)

// LookupFunc reports an environment value and whether it is set.
type LookupFunc func(key string) (string, bool)

// Config is the resolved process configuration.
type Config struct {
	Addr string

	ElevenLabsAPIKey string
	OpenAIAPIKey     string
	OpenAIModel      string
	AnthropicAPIKey  string
	AnthropicModel   string
	DefaultProvider  models.Provider

	SupabaseURL        string
	SupabaseServiceKey string
	DatabaseDSN        string

	// agentOverrides maps module id -> six agent ids, parsed from
	// REFLECTION_AGENT_IDS_JSON. Malformed entries are dropped at load time.
	agentOverrides map[string][AgentSlots]string

	lookup LookupFunc
}

// Load resolves configuration from the process environment.
func Load() *Config {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom resolves configuration through the given lookup, which tests use to
// supply a synthetic environment.
func LoadFrom(lookup LookupFunc) *Config {
	cfg := &Config{
		Addr:               getOr(lookup, "REFLECTD_ADDR", ":8080"),
		ElevenLabsAPIKey:   get(lookup, "ELEVENLABS_API_KEY"),
		OpenAIAPIKey:       firstOf(lookup, "OPENAI_API_KEY", "LLM_API_KEY"),
		OpenAIModel:        firstOfOr(lookup, DefaultOpenAIModel, "OPENAI_MODEL", "LLM_MODEL"),
		AnthropicAPIKey:    get(lookup, "ANTHROPIC_API_KEY"),
		AnthropicModel:     getOr(lookup, "ANTHROPIC_MODEL", DefaultAnthropicModel),
		SupabaseURL:        get(lookup, "SUPABASE_URL"),
		SupabaseServiceKey: firstOf(lookup, "SUPABASE_SERVICE_ROLE_KEY", "SUPABASE_SERVICE_KEY"),
		DatabaseDSN:        get(lookup, "DATABASE_URL"),
		lookup:             lookup,
	}

	provider := models.Provider(strings.TrimSpace(get(lookup, "DEFAULT_MODEL_PROVIDER")))
	if !models.IsValidProvider(provider) {
		if provider != "" {
			slog.Warn("config.LoadFrom: unknown DEFAULT_MODEL_PROVIDER, using anthropic", "value", provider)
		}
		provider = models.ProviderAnthropic
	}
	cfg.DefaultProvider = provider

	cfg.agentOverrides = parseAgentOverrides(get(lookup, "REFLECTION_AGENT_IDS_JSON"))
	return cfg
}

// parseAgentOverrides parses the JSON blob that can override all modules'
// agent ids at once. An entry must hold exactly six non-empty strings; a
// malformed entry is rejected as a whole so resolution falls through to the
// environment and fallbacks unchanged.
func parseAgentOverrides(raw string) map[string][AgentSlots]string {
	overrides := make(map[string][AgentSlots]string)
	if strings.TrimSpace(raw) == "" {
		return overrides
	}
	var parsed map[string][]string
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		slog.Warn("config.parseAgentOverrides: REFLECTION_AGENT_IDS_JSON is not valid JSON, ignoring", "error", err)
		return overrides
	}
	for moduleID, ids := range parsed {
		tuple, err := validateOverride(ids)
		if err != nil {
			slog.Warn("config.parseAgentOverrides: rejecting malformed override", "module", moduleID, "error", err)
			continue
		}
		overrides[moduleID] = tuple
	}
	return overrides
}

func validateOverride(ids []string) ([AgentSlots]string, error) {
	var tuple [AgentSlots]string
	if len(ids) != AgentSlots {
		return tuple, fmt.Errorf("expected %d agent ids, got %d", AgentSlots, len(ids))
	}
	for i, id := range ids {
		trimmed := strings.TrimSpace(id)
		if trimmed == "" {
			return tuple, fmt.Errorf("agent id %d is empty", i+1)
		}
		tuple[i] = trimmed
	}
	return tuple, nil
}

// envName builds the conventional agent id variable name for a slot:
// "{base}_ID" for slot 1 and "{base}_{n}_ID" for slots 2-6.
func envName(base string, slot int) string {
	if slot == 1 {
		return base + "_ID"
	}
	return fmt.Sprintf("%s_%d_ID", base, slot)
}

// ResolveAgentIDs resolves the six agent ids for a module. Resolution order
// per slot: JSON override (whole tuple), primary environment variable, legacy
// environment variable when the module declares a legacy base, baked-in
// fallback. It always returns six trimmed strings and never fails; an empty
// string signals "unconfigured".
func (c *Config) ResolveAgentIDs(m flow.Module) [AgentSlots]string {
	if tuple, ok := c.agentOverrides[m.ID]; ok {
		return tuple
	}
	var ids [AgentSlots]string
	for i := 1; i <= AgentSlots; i++ {
		if v, ok := c.lookup(envName(m.AgentEnvBase, i)); ok {
			ids[i-1] = strings.TrimSpace(v)
			continue
		}
		if m.LegacyAgentEnvBase != "" {
			if v, ok := c.lookup(envName(m.LegacyAgentEnvBase, i)); ok {
				ids[i-1] = strings.TrimSpace(v)
				continue
			}
		}
		ids[i-1] = strings.TrimSpace(m.FallbackAgentIDs[i-1])
	}
	return ids
}

func get(lookup LookupFunc, key string) string {
	v, _ := lookup(key)
	return v
}

func getOr(lookup LookupFunc, key, fallback string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return fallback
}

func firstOf(lookup LookupFunc, keys ...string) string {
	for _, key := range keys {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
	}
	return ""
}

func firstOfOr(lookup LookupFunc, fallback string, keys ...string) string {
	if v := firstOf(lookup, keys...); v != "" {
		return v
	}
	return fallback
}
