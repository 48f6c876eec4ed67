package portal

import "time"

// Config collects everything about the portal that is data rather than
// logic: the login URL, every selector, the no-records marker text and the
// settle delays. The target site is an auto-generated SPA bundle; its
// selectors change whenever the site redeploys, so nothing outside this
// struct names one.
type Config struct {
	LoginURL  string
	Selectors Selectors
	Delays    Delays
}

// Selectors are the CSS paths the authenticator and engine drive.
type Selectors struct {
	// Login page
	ErrorBanner string
	Username    string
	Password    string
	LoginButton string
	PopupDialog string
	PopupText   string

	// Post-login navigation to the search view
	DashboardButton string
	MenuItem        string

	// Search form
	ServiceID    string
	LastName     string
	SearchButton string
	ClearButton  string

	// Results
	ResultsContainer string
	NoRecordsText    string

	// Detail fields on a populated result
	DetailName       string
	DetailService    string
	DetailTraining   string
	DetailStatus     string
	DetailExpiration string
}

// Delays are the fixed settle waits the SPA needs; it signals readiness
// through none of the load events.
type Delays struct {
	PageSettle   time.Duration
	TypeSettle   time.Duration
	LoginSettle  time.Duration
	MenuSettle   time.Duration
	SearchSettle time.Duration
}

const detailRow = "#root > div > div:nth-child(3) > div > div:nth-child(2) > div:nth-child(2) > div:nth-child(3) > div:nth-child(2) > div > div > div:nth-child(1) > div"

// DefaultConfig returns the selector set the portal currently serves.
func DefaultConfig() Config {
	return Config{
		LoginURL: "https://abcbiz.abc.ca.gov/login",
		Selectors: Selectors{
			ErrorBanner: `span[style*="font-size: 120px"]`,
			Username:    "#username",
			Password:    "#password",
			LoginButton: "button.abc-login_submit-button_Sl8_I",
			PopupDialog: `[role="alertdialog"]`,
			PopupText:   `[role="alertdialog"] pre`,

			DashboardButton: `[aria-label="Switch Dashboard"]`,
			MenuItem:        "#long-menu div:nth-child(2) > ul > li",

			ServiceID:    "#serverId",
			LastName:     "#lastName",
			SearchButton: "#root > div > div:nth-child(3) > div > div:nth-child(2) > div:nth-child(2) > div:nth-child(1) > div:nth-child(2) > div > div > div > div > div:nth-child(2) > button:nth-child(2)",
			ClearButton:  `button[class*="search-box-container_action-clear"]`,

			ResultsContainer: "div.sc-gAnuJb.gzDMq",
			NoRecordsText:    "There are no records by selected search parameters",

			DetailName:       detailRow + " > div:nth-child(1) > div > div > p > span",
			DetailService:    detailRow + " > div:nth-child(2) > div > div > p",
			DetailTraining:   detailRow + " > div:nth-child(3) > div > div > p",
			DetailStatus:     detailRow + " > div:nth-child(4) > div > div > p",
			DetailExpiration: detailRow + " > div:nth-child(5) > div > div > p",
		},
		Delays: Delays{
			PageSettle:   7 * time.Second,
			TypeSettle:   3 * time.Second,
			LoginSettle:  7 * time.Second,
			MenuSettle:   5 * time.Second,
			SearchSettle: 5 * time.Second,
		},
	}
}
