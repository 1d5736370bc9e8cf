package models

type FooterSettings struct {
	CompanyName    string `json:"company_name"`
	Description    string `json:"description"`
	Address        string `json:"address"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	CopyrightText  string `json:"copyright_text"`
	ShowNewsletter bool   `json:"show_newsletter"`
	NewsletterText string `json:"newsletter_text"`
}

type FooterLink struct {
	ID           ID     `json:"id"`
	Title        string `json:"title"`
	URL          string `json:"url"`
	OpenInNewTab bool   `json:"open_in_new_tab"`
	Order        int    `json:"order"`
}

type FooterSection struct {
	ID    ID           `json:"id"`
	Title string       `json:"title"`
	Slug  string       `json:"slug"`
	Order int          `json:"order"`
	Links []FooterLink `json:"links"`
}

type SocialMedia struct {
	ID       ID     `json:"id"`
	Platform string `json:"platform"`
	URL      string `json:"url"`
	Icon     string `json:"icon"`
	Order    int    `json:"order"`
}

// FooterData is the aggregate returned by /footer/.
type FooterData struct {
	Settings    *FooterSettings `json:"settings"`
	Sections    []FooterSection `json:"sections"`
	SocialMedia []SocialMedia   `json:"social_media"`
}
