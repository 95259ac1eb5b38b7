// selectors.go — CSS selectors describing the third-party chat UI.
// The defaults target the Copilot side panel; they are configuration, not code,
// because the host page changes its markup without notice.
package rodpage

import (
	"errors"
	"fmt"
)

// Selectors locates every element the bridge touches. HostChain is walked from
// the document: each selector is queried inside the previous host's shadow root
// and the last host's shadow root holds the thread list. Per-thread selectors
// are queried inside each thread element's own shadow root.
type Selectors struct {
	HostChain []string `yaml:"host_chain" json:"host_chain"`
	ShowAll   string   `yaml:"show_all" json:"show_all"`
	Thread    string   `yaml:"thread" json:"thread"`
	Name      string   `yaml:"name" json:"name"`
	Primary   string   `yaml:"primary" json:"primary"`
	Delete    string   `yaml:"delete" json:"delete"`
	Edit      string   `yaml:"edit" json:"edit"`
	Confirm   string   `yaml:"confirm" json:"confirm"`
	NameInput string   `yaml:"name_input" json:"name_input"`
}

// DefaultSelectors returns the selectors for the Copilot conversation panel.
func DefaultSelectors() Selectors {
	return Selectors{
		HostChain: []string{
			"#b_sydConvCont > cib-serp",
			"#cib-conversation-main > cib-side-panel",
		},
		ShowAll:   "div.main > div.threads-container > div > div > button",
		Thread:    "#cib-threads-container > cib-thread",
		Name:      "#name",
		Primary:   "div > div > button",
		Delete:    "div > div > div.controls > button.delete.icon-button",
		Edit:      "div > div > div.controls > button.edit.icon-button",
		Confirm:   "div > div > div.controls > button.confirm.icon-button",
		NameInput: "div > div > div.description > input",
	}
}

// Merge returns s with every non-empty field of o applied on top.
func (s Selectors) Merge(o Selectors) Selectors {
	if len(o.HostChain) > 0 {
		s.HostChain = append([]string(nil), o.HostChain...)
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&s.ShowAll, o.ShowAll)
	set(&s.Thread, o.Thread)
	set(&s.Name, o.Name)
	set(&s.Primary, o.Primary)
	set(&s.Delete, o.Delete)
	set(&s.Edit, o.Edit)
	set(&s.Confirm, o.Confirm)
	set(&s.NameInput, o.NameInput)
	return s
}

// Validate reports missing selectors.
func (s Selectors) Validate() error {
	var errs []error
	if len(s.HostChain) == 0 {
		errs = append(errs, errors.New("host_chain must name at least one shadow host"))
	}
	for i, h := range s.HostChain {
		if h == "" {
			errs = append(errs, fmt.Errorf("host_chain[%d] is empty", i))
		}
	}
	fields := []struct {
		name, value string
	}{
		{"show_all", s.ShowAll},
		{"thread", s.Thread},
		{"name", s.Name},
		{"primary", s.Primary},
		{"delete", s.Delete},
		{"edit", s.Edit},
		{"confirm", s.Confirm},
		{"name_input", s.NameInput},
	}
	for _, f := range fields {
		if f.value == "" {
			errs = append(errs, fmt.Errorf("%s selector is empty", f.name))
		}
	}
	return errors.Join(errs...)
}
