package jsonfile

import (
	"sort"
	"sync"

	"announcebot/store"
)

// TemplateStore keeps announcement templates in templates.json as a
// flat name-to-text object.
type TemplateStore struct {
	mu   sync.Mutex
	path string
}

func (s *TemplateStore) load() (map[string]string, error) {
	templates := map[string]string{}
	if err := readCollection(s.path, &templates, "{}"); err != nil {
		return nil, err
	}
	return templates, nil
}

// All returns templates sorted by name.
func (s *TemplateStore) All() ([]store.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	templates, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]store.Template, 0, len(templates))
	for name, text := range templates {
		out = append(out, store.Template{Name: name, Text: text})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Get returns a template by name.
func (s *TemplateStore) Get(name string) (store.Template, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	templates, err := s.load()
	if err != nil {
		return store.Template{}, false, err
	}
	text, ok := templates[name]
	if !ok {
		return store.Template{}, false, nil
	}
	return store.Template{Name: name, Text: text}, true, nil
}

// Save stores a template, overwriting any previous text under the name.
func (s *TemplateStore) Save(t store.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	templates, err := s.load()
	if err != nil {
		return err
	}
	templates[t.Name] = t.Text
	return writeCollection(s.path, templates)
}

// Delete removes a template by name.
func (s *TemplateStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	templates, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := templates[name]; !ok {
		return store.ErrTemplateNotFound
	}
	delete(templates, name)
	return writeCollection(s.path, templates)
}

// Exists reports whether a template with the name is stored.
func (s *TemplateStore) Exists(name string) (bool, error) {
	_, ok, err := s.Get(name)
	return ok, err
}
