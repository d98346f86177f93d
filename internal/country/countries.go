package country

import "github.com/sakif/gh-rankings/internal/model"

// reference is the ordered country list. Order is significant: the first
// match wins, so a name that contains another country's name must come
// before it (Nigeria before Niger, Somalia before Mali, Romania before Oman,
// South Sudan before Sudan, North Korea before the "korea"
// alias of South Korea, and so on).
var reference = []model.Country{
	// Americas
	{Code: "US", Name: "United States", Region: "Americas"},
	{Code: "CA", Name: "Canada", Region: "Americas"},
	{Code: "MX", Name: "Mexico", Region: "Americas"},
	{Code: "BR", Name: "Brazil", Region: "Americas"},
	{Code: "AR", Name: "Argentina", Region: "Americas"},
	{Code: "CL", Name: "Chile", Region: "Americas"},
	{Code: "CO", Name: "Colombia", Region: "Americas"},
	{Code: "PE", Name: "Peru", Region: "Americas"},
	{Code: "VE", Name: "Venezuela", Region: "Americas"},
	{Code: "EC", Name: "Ecuador", Region: "Americas"},
	{Code: "UY", Name: "Uruguay", Region: "Americas"},
	{Code: "PY", Name: "Paraguay", Region: "Americas"},
	{Code: "BO", Name: "Bolivia", Region: "Americas"},
	{Code: "CR", Name: "Costa Rica", Region: "Americas"},
	{Code: "PA", Name: "Panama", Region: "Americas"},
	{Code: "GT", Name: "Guatemala", Region: "Americas"},
	{Code: "CU", Name: "Cuba", Region: "Americas"},
	{Code: "DO", Name: "Dominican Republic", Region: "Americas"},
	{Code: "DM", Name: "Dominica", Region: "Americas"},
	{Code: "JM", Name: "Jamaica", Region: "Americas"},
	{Code: "PR", Name: "Puerto Rico", Region: "Americas"},

	// Europe
	{Code: "GB", Name: "United Kingdom", Region: "Europe"},
	{Code: "IE", Name: "Ireland", Region: "Europe"},
	{Code: "DE", Name: "Germany", Region: "Europe"},
	{Code: "FR", Name: "France", Region: "Europe"},
	{Code: "NL", Name: "Netherlands", Region: "Europe"},
	{Code: "BE", Name: "Belgium", Region: "Europe"},
	{Code: "LU", Name: "Luxembourg", Region: "Europe"},
	{Code: "CH", Name: "Switzerland", Region: "Europe"},
	{Code: "AT", Name: "Austria", Region: "Europe"},
	{Code: "IT", Name: "Italy", Region: "Europe"},
	{Code: "ES", Name: "Spain", Region: "Europe"},
	{Code: "PT", Name: "Portugal", Region: "Europe"},
	{Code: "SE", Name: "Sweden", Region: "Europe"},
	{Code: "NO", Name: "Norway", Region: "Europe"},
	{Code: "DK", Name: "Denmark", Region: "Europe"},
	{Code: "FI", Name: "Finland", Region: "Europe"},
	{Code: "IS", Name: "Iceland", Region: "Europe"},
	{Code: "PL", Name: "Poland", Region: "Europe"},
	{Code: "CZ", Name: "Czech Republic", Region: "Europe"},
	{Code: "SK", Name: "Slovakia", Region: "Europe"},
	{Code: "SI", Name: "Slovenia", Region: "Europe"},
	{Code: "HU", Name: "Hungary", Region: "Europe"},
	{Code: "RO", Name: "Romania", Region: "Europe"},
	{Code: "BG", Name: "Bulgaria", Region: "Europe"},
	{Code: "GR", Name: "Greece", Region: "Europe"},
	{Code: "HR", Name: "Croatia", Region: "Europe"},
	{Code: "RS", Name: "Serbia", Region: "Europe"},
	{Code: "BA", Name: "Bosnia and Herzegovina", Region: "Europe"},
	{Code: "AL", Name: "Albania", Region: "Europe"},
	{Code: "UA", Name: "Ukraine", Region: "Europe"},
	{Code: "BY", Name: "Belarus", Region: "Europe"},
	{Code: "RU", Name: "Russia", Region: "Europe"},
	{Code: "LT", Name: "Lithuania", Region: "Europe"},
	{Code: "LV", Name: "Latvia", Region: "Europe"},
	{Code: "EE", Name: "Estonia", Region: "Europe"},
	{Code: "MD", Name: "Moldova", Region: "Europe"},

	// Asia
	{Code: "CN", Name: "China", Region: "Asia"},
	{Code: "JP", Name: "Japan", Region: "Asia"},
	{Code: "KP", Name: "North Korea", Region: "Asia"},
	{Code: "KR", Name: "South Korea", Region: "Asia"},
	{Code: "TW", Name: "Taiwan", Region: "Asia"},
	{Code: "HK", Name: "Hong Kong", Region: "Asia"},
	{Code: "IN", Name: "India", Region: "Asia"},
	{Code: "PK", Name: "Pakistan", Region: "Asia"},
	{Code: "BD", Name: "Bangladesh", Region: "Asia"},
	{Code: "LK", Name: "Sri Lanka", Region: "Asia"},
	{Code: "NP", Name: "Nepal", Region: "Asia"},
	{Code: "ID", Name: "Indonesia", Region: "Asia"},
	{Code: "MY", Name: "Malaysia", Region: "Asia"},
	{Code: "SG", Name: "Singapore", Region: "Asia"},
	{Code: "TH", Name: "Thailand", Region: "Asia"},
	{Code: "VN", Name: "Vietnam", Region: "Asia"},
	{Code: "PH", Name: "Philippines", Region: "Asia"},
	{Code: "KZ", Name: "Kazakhstan", Region: "Asia"},
	{Code: "UZ", Name: "Uzbekistan", Region: "Asia"},
	{Code: "TR", Name: "Turkey", Region: "Asia"},
	{Code: "IL", Name: "Israel", Region: "Asia"},
	{Code: "IR", Name: "Iran", Region: "Asia"},
	{Code: "IQ", Name: "Iraq", Region: "Asia"},
	{Code: "SA", Name: "Saudi Arabia", Region: "Asia"},
	{Code: "AE", Name: "United Arab Emirates", Region: "Asia"},
	{Code: "QA", Name: "Qatar", Region: "Asia"},
	{Code: "JO", Name: "Jordan", Region: "Asia"},
	{Code: "LB", Name: "Lebanon", Region: "Asia"},
	{Code: "OM", Name: "Oman", Region: "Asia"},
	{Code: "AF", Name: "Afghanistan", Region: "Asia"},

	// Africa
	{Code: "NG", Name: "Nigeria", Region: "Africa"},
	{Code: "NE", Name: "Niger", Region: "Africa"},
	{Code: "ZA", Name: "South Africa", Region: "Africa"},
	{Code: "SS", Name: "South Sudan", Region: "Africa"},
	{Code: "SD", Name: "Sudan", Region: "Africa"},
	{Code: "EG", Name: "Egypt", Region: "Africa"},
	{Code: "KE", Name: "Kenya", Region: "Africa"},
	{Code: "ET", Name: "Ethiopia", Region: "Africa"},
	{Code: "GH", Name: "Ghana", Region: "Africa"},
	{Code: "MA", Name: "Morocco", Region: "Africa"},
	{Code: "DZ", Name: "Algeria", Region: "Africa"},
	{Code: "TN", Name: "Tunisia", Region: "Africa"},
	{Code: "ZW", Name: "Zimbabwe", Region: "Africa"},
	{Code: "UG", Name: "Uganda", Region: "Africa"},
	{Code: "TZ", Name: "Tanzania", Region: "Africa"},
	{Code: "RW", Name: "Rwanda", Region: "Africa"},
	{Code: "CM", Name: "Cameroon", Region: "Africa"},
	{Code: "SN", Name: "Senegal", Region: "Africa"},
	{Code: "SO", Name: "Somalia", Region: "Africa"},
	{Code: "ML", Name: "Mali", Region: "Africa"},
	{Code: "CD", Name: "Democratic Republic of the Congo", Region: "Africa"},
	{Code: "CG", Name: "Congo", Region: "Africa"},
	{Code: "PG", Name: "Papua New Guinea", Region: "Oceania"},
	{Code: "GW", Name: "Guinea-Bissau", Region: "Africa"},
	{Code: "GQ", Name: "Equatorial Guinea", Region: "Africa"},
	{Code: "GN", Name: "Guinea", Region: "Africa"},

	// Oceania
	{Code: "AU", Name: "Australia", Region: "Oceania"},
	{Code: "NZ", Name: "New Zealand", Region: "Oceania"},
}
