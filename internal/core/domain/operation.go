package domain

// Operation names one of the forwarded LM Studio calls. The wording of the
// caller-facing error details hangs off it so every operation reports
// failures the same way.
type Operation string

const (
	OpListModels  Operation = "list_models"
	OpLoadModel   Operation = "load_model"
	OpUnloadModel Operation = "unload_model"
	OpModelInfo   Operation = "model_info"
)

func (o Operation) rejectedPrefix() string {
	switch o {
	case OpLoadModel:
		return "Failed to load model"
	case OpUnloadModel:
		return "Failed to unload model"
	case OpModelInfo:
		return "Model not found"
	default:
		return "LM Studio API error"
	}
}

func (o Operation) failedPrefix() string {
	switch o {
	case OpLoadModel:
		return "Error loading model"
	case OpUnloadModel:
		return "Error unloading model"
	case OpModelInfo:
		return "Error fetching model info"
	default:
		return "Error fetching LM Studio models"
	}
}

// Verb is the past tense used in acknowledgements, empty for read operations
func (o Operation) Verb() string {
	switch o {
	case OpLoadModel:
		return "loaded"
	case OpUnloadModel:
		return "unloaded"
	default:
		return ""
	}
}
