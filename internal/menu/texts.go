package menu

// Texts are the router's own user-facing strings.
type Texts struct {
	Greeting        string `yaml:"greeting"`
	Help            string `yaml:"help"`
	UseMenu         string `yaml:"use_menu"`
	FreeReceived    string `yaml:"free_received"`
	ChooseContact   string `yaml:"choose_contact"`
	LeavePhone      string `yaml:"leave_phone"`
	LeaveUsername   string `yaml:"leave_username"`
	SendPhonePrompt string `yaml:"send_phone_prompt"`
	SendPhoneButton string `yaml:"send_phone_button"`
	PhoneSaved      string `yaml:"phone_saved"`
	UsernameSaved   string `yaml:"username_saved"`
	NoUsername      string `yaml:"no_username"`
	OperatorHint    string `yaml:"operator_hint"`
}

// DefaultTexts returns the built-in English texts.
func DefaultTexts() Texts {
	return Texts{
		Greeting: "Hello! I am the assistant of the hereditary disease carrier screening service.\n\n" +
			"How can I help?",
		Help: "Use the menu buttons below. To send us a question just type it here, " +
			"our specialist will answer in this chat.\n\n/start opens the main menu, /cancel stops a form.",
		UseMenu:         "Please use the menu below.",
		FreeReceived:    "I have passed your message on. You can keep writing here, answers will arrive in this chat.",
		ChooseContact:   "How should we contact you?",
		LeavePhone:      "📱 Leave a phone number",
		LeaveUsername:   "💬 Use my @username",
		SendPhonePrompt: "Tap the button below to send your phone number:",
		SendPhoneButton: "📱 Send phone number",
		PhoneSaved:      "Thank you! I have saved your number.",
		UsernameSaved:   "Thank you! I have saved your @username.",
		NoUsername:      "You have no Telegram username set. Please leave a phone number instead.",
		OperatorHint:    "To answer a user, reply to their message.",
	}
}

// Merge returns t with every non-empty value of o applied on top.
func (t Texts) Merge(o Texts) Texts {
	for _, p := range []struct {
		dst *string
		src string
	}{
		{&t.Greeting, o.Greeting},
		{&t.Help, o.Help},
		{&t.UseMenu, o.UseMenu},
		{&t.FreeReceived, o.FreeReceived},
		{&t.ChooseContact, o.ChooseContact},
		{&t.LeavePhone, o.LeavePhone},
		{&t.LeaveUsername, o.LeaveUsername},
		{&t.SendPhonePrompt, o.SendPhonePrompt},
		{&t.SendPhoneButton, o.SendPhoneButton},
		{&t.PhoneSaved, o.PhoneSaved},
		{&t.UsernameSaved, o.UsernameSaved},
		{&t.NoUsername, o.NoUsername},
		{&t.OperatorHint, o.OperatorHint},
	} {
		if p.src != "" {
			*p.dst = p.src
		}
	}
	return t
}
