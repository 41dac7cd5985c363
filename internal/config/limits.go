package config

const (
	// MaxGroupNameLength is the maximum length for group names.
	MaxGroupNameLength = 255

	// MaxProjectNameLength is the maximum length for project names.
	MaxProjectNameLength = 255

	// MaxDescriptionLength bounds group descriptions.
	MaxDescriptionLength = 2000

	// MaxTagsPerProject and MaxTagLength bound project tags.
	MaxTagsPerProject = 50
	MaxTagLength      = 64

	// MaxFoldersPerProject bounds the Drive folders a generation reads.
	MaxFoldersPerProject = 20

	// MaxPromptLength bounds each prompt layer (characters).
	MaxPromptLength = 100_000

	// MaxInfoSheetLength bounds a manually edited info sheet (characters).
	MaxInfoSheetLength = 200_000

	// MaxRequestBodyBytes caps JSON request bodies. Info sheets are the largest.
	MaxRequestBodyBytes = 1 << 20

	// MaxSourceFileBytes caps the text read from one Drive file.
	MaxSourceFileBytes = 1 << 20

	// MaxSourceFilesPerFolder caps files read from one Drive folder.
	MaxSourceFilesPerFolder = 50
)
