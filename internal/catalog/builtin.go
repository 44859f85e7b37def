package catalog

// Builtin returns the production catalog. Prices are micro-USD taken from the
// providers' published rates; credit costs are derived at construction.
func Builtin() (*Catalog, error) {
	models := []ModelConfig{
		// Text - cheap tier (free orchestration)
		{
			ID:               "gemini-2.5-flash-lite",
			Provider:         "google",
			DisplayName:      "Gemini Flash Lite",
			Type:             ModelTypeText,
			Tier:             TierCheap,
			InputCostPer1M:   10_000,  // $0.01
			OutputCostPer1M:  20_000,  // $0.02
			MaxContextTokens: 128_000,
			SupportsTools:    true,
			SupportsVision:   true,
			IsDefault:        true,
		},
		// Text - standard tier (paid orchestration)
		{
			ID:               "gemini-2.5-flash",
			Provider:         "google",
			DisplayName:      "Gemini Flash",
			Type:             ModelTypeText,
			Tier:             TierStandard,
			InputCostPer1M:   150_000, // $0.15
			OutputCostPer1M:  600_000, // $0.60
			MaxContextTokens: 128_000,
			SupportsTools:    true,
			SupportsVision:   true,
			IsDefault:        true,
		},
		// Text - premium tier (deep reasoning)
		{
			ID:               "gemini-3-pro-preview",
			Provider:         "google",
			DisplayName:      "Gemini 3 Pro",
			Type:             ModelTypeText,
			Tier:             TierPremium,
			InputCostPer1M:   2_000_000,  // $2.00
			OutputCostPer1M:  12_000_000, // $12.00
			MaxContextTokens: 128_000,
			SupportsTools:    true,
			SupportsVision:   true,
			IsDefault:        true,
		},
		// Legacy premium model, kept for explicit selection
		{
			ID:               "gemini-2.5-pro",
			Provider:         "google",
			DisplayName:      "Gemini 2.5 Pro",
			Type:             ModelTypeText,
			Tier:             TierPremium,
			InputCostPer1M:   1_250_000,  // $1.25
			OutputCostPer1M:  10_000_000, // $10.00
			MaxContextTokens: 128_000,
			SupportsTools:    true,
			SupportsVision:   true,
		},
		// Image generation; token-priced output flattened to a per-image cost
		{
			ID:               "gemini-2.5-flash-image",
			Provider:         "google",
			DisplayName:      "Gemini Flash Image",
			Type:             ModelTypeImage,
			Tier:             TierStandard,
			PerRequestCost:   38_700, // $0.0387 per 1024px image
			MaxContextTokens: 128_000,
			SupportsVision:   true,
			IsDefault:        true,
		},
		{
			ID:               "gemini-3-pro-image-preview",
			Provider:         "google",
			DisplayName:      "Gemini 3 Pro Image",
			Type:             ModelTypeImage,
			Tier:             TierPremium,
			PerRequestCost:   134_000, // $0.134 per 1K/2K image
			MaxContextTokens: 128_000,
			SupportsVision:   true,
		},
		{
			ID:               "dall-e-3",
			Provider:         "openai",
			DisplayName:      "DALL-E 3",
			Type:             ModelTypeImage,
			Tier:             TierPremium,
			PerRequestCost:   80_000, // $0.08
			MaxContextTokens: 128_000,
		},
		// Video generation ($0.50/s resp. $1.00/s, default 6s clip)
		{
			ID:               "veo-3.1-fast-generate-preview",
			Provider:         "google",
			DisplayName:      "Veo 3.1 Fast",
			Type:             ModelTypeVideo,
			Tier:             TierStandard,
			PerRequestCost:   3_000_000, // $3.00
			MaxContextTokens: 128_000,
			SupportsVision:   true,
			IsDefault:        true,
		},
		{
			ID:               "veo-3.1-generate-preview",
			Provider:         "google",
			DisplayName:      "Veo 3.1 Standard",
			Type:             ModelTypeVideo,
			Tier:             TierPremium,
			PerRequestCost:   6_000_000, // $6.00
			MaxContextTokens: 128_000,
			SupportsVision:   true,
		},
		// Voice / TTS
		{
			ID:               "gemini-2.5-pro-preview-tts",
			Provider:         "google",
			DisplayName:      "Gemini 2.5 Pro TTS",
			Type:             ModelTypeVoice,
			Tier:             TierStandard,
			InputCostPer1M:   150_000,   // $0.15
			OutputCostPer1M:  6_000_000, // $6.00
			MaxContextTokens: 128_000,
			IsDefault:        true,
		},
	}

	tools := []ToolConfig{
		{
			Name:           "web_search",
			Description:    "Search the web for current information",
			ModelType:      ModelTypeText,
			BaseCreditCost: 0,
			FreeDailyLimit: 10,
		},
		{
			Name:           "image_generate",
			Description:    "Generate an image from a text prompt",
			ModelType:      ModelTypeImage,
			DefaultModelID: "gemini-2.5-flash-image",
			BaseCreditCost: 5,
			FreeDailyLimit: 1,
			IsPremium:      true,
		},
		{
			Name:           "image_edit",
			Description:    "Edit an existing image based on instructions",
			ModelType:      ModelTypeImage,
			DefaultModelID: "gemini-2.5-flash-image",
			BaseCreditCost: 5,
			FreeDailyLimit: 1,
			IsPremium:      true,
		},
		{
			Name:           "think_deep",
			Description:    "Use advanced reasoning for complex problems",
			ModelType:      ModelTypeText,
			DefaultModelID: "gemini-3-pro-preview",
			BaseCreditCost: 10,
			FreeDailyLimit: 0,
			IsPremium:      true,
		},
		{
			Name:           "voice_generate",
			Description:    "Generate speech audio from text",
			ModelType:      ModelTypeVoice,
			BaseCreditCost: 3,
			FreeDailyLimit: 0,
			IsPremium:      true,
		},
		{
			Name:           "video_generate",
			Description:    "Generate a short video from a prompt",
			ModelType:      ModelTypeVideo,
			BaseCreditCost: 20,
			FreeDailyLimit: 0,
			IsPremium:      true,
		},
		{
			Name:           "update_memory",
			Description:    "Update the persistent memory for this chat",
			ModelType:      ModelTypeText,
			BaseCreditCost: 0,
			FreeDailyLimit: 100,
		},
	}

	return New(models, tools)
}
