package assets

// Page template names.
const (
	IndexTemplate = "index"
	PostTemplate  = "post"
	TagTemplate   = "tag"
)

// PageTemplates lists the templates a site needs.
var PageTemplates = []string{IndexTemplate, PostTemplate, TagTemplate}

// Loader loads HTML templates by name, without the .html extension.
type Loader interface {
	// LoadTemplate returns ErrTemplateNotFound if the template does not exist
	// and ErrInvalidTemplateName if the name is unsafe.
	LoadTemplate(name string) (string, error)
}
