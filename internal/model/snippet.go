package model

// SourceSnippet is a snippet as read from one input file.
type SourceSnippet struct {
	Name    string       `json:"name" yaml:"name"`
	Trigger string       `json:"trigger" yaml:"trigger"`
	Body    string       `json:"body" yaml:"body"`
	Scope   string       `json:"scope,omitempty" yaml:"scope,omitempty"`
	Path    string       `json:"path" yaml:"path"`
	Format  SourceFormat `json:"format" yaml:"format"`
}

// DisplayName returns the snippet name, falling back to the trigger.
func (s SourceSnippet) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Trigger
}

// ConvertedSnippet is a SourceSnippet rewritten for snipMate.
type ConvertedSnippet struct {
	Trigger   string `json:"trigger" yaml:"trigger"`
	Name      string `json:"name" yaml:"name"`
	Body      string `json:"body" yaml:"body"`
	Namespace string `json:"namespace" yaml:"namespace"`
	// FileName is the filesystem-safe output name, without extension.
	FileName string `json:"file_name" yaml:"file_name"`
	Source   string `json:"source" yaml:"source"`
}
