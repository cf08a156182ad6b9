package relay

// Texts are the operator-facing strings. The correlation marker is not
// configurable.
type Texts struct {
	LeadTitle     string `yaml:"lead_title"`
	MessageTitle  string `yaml:"message_title"`
	ContactTitle  string `yaml:"contact_title"`
	HandleTitle   string `yaml:"handle_title"`
	ClientLabel   string `yaml:"client_label"`
	UsernameLabel string `yaml:"username_label"`
	PhoneLabel    string `yaml:"phone_label"`
	SourceLabel   string `yaml:"source_label"`
	LeadLabel     string `yaml:"lead_label"`
}

// DefaultTexts returns the built-in operator texts.
func DefaultTexts() Texts {
	return Texts{
		LeadTitle:     "📝 New request",
		MessageTitle:  "💬 New message",
		ContactTitle:  "📱 Phone shared",
		HandleTitle:   "👤 Contact me by username",
		ClientLabel:   "Client",
		UsernameLabel: "Username",
		PhoneLabel:    "Phone",
		SourceLabel:   "Source",
		LeadLabel:     "Request",
	}
}

// Merge returns t with every non-empty value of o applied on top.
func (t Texts) Merge(o Texts) Texts {
	for _, p := range []struct {
		dst *string
		src string
	}{
		{&t.LeadTitle, o.LeadTitle},
		{&t.MessageTitle, o.MessageTitle},
		{&t.ContactTitle, o.ContactTitle},
		{&t.HandleTitle, o.HandleTitle},
		{&t.ClientLabel, o.ClientLabel},
		{&t.UsernameLabel, o.UsernameLabel},
		{&t.PhoneLabel, o.PhoneLabel},
		{&t.SourceLabel, o.SourceLabel},
		{&t.LeadLabel, o.LeadLabel},
	} {
		if p.src != "" {
			*p.dst = p.src
		}
	}
	return t
}
