package flow

// Module is the static configuration record for one reflection track. Modules
// are immutable and registered at process start.
type Module struct {
	ID                       string
	Slug                     string
	Exercise                 string
	StoragePrefix            string
	Title                    string
	TranscriptTitle          string
	TranscriptFilenamePrefix string
	SignedURLEndpoint        string
	SessionEndpoint          string
	AgentEnvBase             string
	LegacyAgentEnvBase       string
	FallbackAgentIDs         [6]string
}

// defaultFallbackAgentIDs are the baked-in agent ids shared by all tracks
// until each track gets its own dedicated agents.
var defaultFallbackAgentIDs = [6]string{
	"agent_9301kb17m8qafjz81fzh3xed32gw",
	"agent_3001kb17yts2ez6tmp7h6yczfeej",
	"agent_4101kb18epgrfpd8fthhywkwc5vh",
	"agent_2101kb18g7gtesyv4319ybbppf6y",
	"agent_4301kb18hc1mfvz9qwrw5k5acnry",
	"agent_7001kb18jpckevg876ah1m4472hc",
}

var modules = []Module{
	{
		ID:                       "acquisitions",
		Slug:                     "acquisitions",
		Exercise:                 "acquisitions",
		StoragePrefix:            "acquisitions",
		Title:                    "Acquisitions Career Pathway Reflection",
		TranscriptTitle:          "Acquisitions Career Pathway Reflection Transcript",
		TranscriptFilenamePrefix: "acquisitions-reflection-transcript",
		SignedURLEndpoint:        "/api/acquisitions/coach/signed-url",
		SessionEndpoint:          "/api/acquisitions/session",
		AgentEnvBase:             "ACQUISITION_AGENT",
		LegacyAgentEnvBase:       "ELEVENLABS_AGENT",
		FallbackAgentIDs:         defaultFallbackAgentIDs,
	},
	{
		ID:                       "asset-management",
		Slug:                     "asset-management",
		Exercise:                 "asset_management",
		StoragePrefix:            "asset_management",
		Title:                    "Asset Management Career Pathway Reflection",
		TranscriptTitle:          "Asset Management Career Pathway Reflection Transcript",
		TranscriptFilenamePrefix: "asset-management-reflection-transcript",
		SignedURLEndpoint:        "/api/asset-management/coach/signed-url",
		SessionEndpoint:          "/api/asset-management/session",
		AgentEnvBase:             "ASSET_MANAGEMENT_AGENT",
		LegacyAgentEnvBase:       "ELEVENLABS_ASSET_MANAGEMENT_AGENT",
		FallbackAgentIDs:         defaultFallbackAgentIDs,
	},
	{
		ID:                       "development",
		Slug:                     "development",
		Exercise:                 "development",
		StoragePrefix:            "development",
		Title:                    "Development Career Pathway Reflection",
		TranscriptTitle:          "Development Career Pathway Reflection Transcript",
		TranscriptFilenamePrefix: "development-reflection-transcript",
		SignedURLEndpoint:        "/api/development/coach/signed-url",
		SessionEndpoint:          "/api/development/session",
		AgentEnvBase:             "DEVELOPMENT_AGENT",
		FallbackAgentIDs:         defaultFallbackAgentIDs,
	},
	{
		ID:                       "brokerage",
		Slug:                     "brokerage",
		Exercise:                 "brokerage",
		StoragePrefix:            "brokerage",
		Title:                    "Brokerage Career Pathway Reflection",
		TranscriptTitle:          "Brokerage Career Pathway Reflection Transcript",
		TranscriptFilenamePrefix: "brokerage-reflection-transcript",
		SignedURLEndpoint:        "/api/brokerage/coach/signed-url",
		SessionEndpoint:          "/api/brokerage/session",
		AgentEnvBase:             "BROKERAGE_AGENT",
		FallbackAgentIDs:         defaultFallbackAgentIDs,
	},
}

// Modules returns all registered reflection modules in registration order.
func Modules() []Module {
	out := make([]Module, len(modules))
	copy(out, modules)
	return out
}

// ModuleByID looks up a module by its identity.
func ModuleByID(id string) (Module, bool) {
	for _, m := range modules {
		if m.ID == id {
			return m, true
		}
	}
	return Module{}, false
}

// ModuleBySlug looks up a module by its URL slug.
func ModuleBySlug(slug string) (Module, bool) {
	for _, m := range modules {
		if m.Slug == slug {
			return m, true
		}
	}
	return Module{}, false
}
