package template

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"

	"github.com/fahaniecares/notification-delivery/internal/domain"
	"github.com/fahaniecares/notification-delivery/internal/errs"
	ca "github.com/patrickmn/go-cache"
)

//go:embed templates
var templateFS embed.FS

const (
	baseTemplate    = "templates/emails/base.html"
	notificationDir = "templates/emails/notifications"
	genericTemplate = "generic.html"

	cacheKeyPrefix = "tmpl:"
)

// Service renders the HTML body of a notification email. Resolution follows
// the file convention templates/emails/notifications/<type>.html with a
// generic fallback; an explicit TemplateName on the notification overrides
// the convention and must exist.
type Service interface {
	Render(n domain.Notification) (string, error)
}

type service struct {
	cache *ca.Cache
}

func NewService(c *ca.Cache) Service {
	return &service{cache: c}
}

func (s *service) Render(n domain.Notification) (string, error) {
	name, err := s.resolve(n)
	if err != nil {
		return "", err
	}
	tpl, err := s.parse(name)
	if err != nil {
		return "", err
	}
	data := map[string]any{
		"Notification": n,
		"Recipient":    n.Recipient,
		"Title":        n.Title,
		"Message":      n.Message,
	}
	for k, v := range n.TemplateContext {
		data[k] = v
	}
	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		return "", fmt.Errorf("execute template %q: %w", name, err)
	}
	return buf.String(), nil
}

// resolve picks the body template file name under notificationDir. The
// generic fallback applies only to the convention path; a missing explicit
// override is a configuration error.
func (s *service) resolve(n domain.Notification) (string, error) {
	if n.TemplateName != "" {
		if !s.exists(n.TemplateName) {
			return "", fmt.Errorf("%w: %q", errs.ErrTemplateNotFound, n.TemplateName)
		}
		return n.TemplateName, nil
	}
	name := n.Type.String() + ".html"
	if s.exists(name) {
		return name, nil
	}
	return genericTemplate, nil
}

func (s *service) exists(name string) bool {
	_, err := fs.Stat(templateFS, notificationDir+"/"+name)
	return err == nil
}

// parse loads base + body and memoizes the result. Embedded templates are
// immutable, so cached entries never expire.
func (s *service) parse(name string) (*template.Template, error) {
	key := cacheKeyPrefix + name
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*template.Template), nil
	}
	tpl, err := template.ParseFS(templateFS, baseTemplate, notificationDir+"/"+name)
	if err != nil {
		return nil, fmt.Errorf("parse template %q: %w", name, err)
	}
	s.cache.Set(key, tpl, ca.NoExpiration)
	return tpl, nil
}
