package client

// Board is a board record as returned by the API.
type Board struct {
	ID           int      `json:"id"`
	RefAsteel    string   `json:"ref_asteel"`
	RefClient    string   `json:"ref_client"`
	Designation  string   `json:"designation"`
	Client       string   `json:"client"`
	BoardVersion string   `json:"board_version"`
	CodeIndus    string   `json:"code_indus"`
	Indice       string   `json:"indice"`
	Software     string   `json:"software"`
	SoftwareVer  string   `json:"software_ver"`
	IsValid      bool     `json:"is_valid"`
	IDAssembly   *int     `json:"id_assembly,omitempty"`
	IDProcess    *int     `json:"id_process,omitempty"`
	QuantCondit  *int     `json:"quantcondit,omitempty"`
	IDFamille    *int     `json:"id_famille,omitempty"`
	SerialNumber string   `json:"serial_number"`
	FamilyName   string   `json:"family_name"`
	Prix         *float64 `json:"prix,omitempty"`
}

// BoardCreate is the payload for creating a board. Field names follow the
// backend's column names.
type BoardCreate struct {
	RefAsteelFlash string   `json:"REF_AsteelFlash,omitempty"`
	RefClients     string   `json:"REF_Clients,omitempty"`
	Designation    string   `json:"Designation,omitempty"`
	Client         string   `json:"Client,omitempty"`
	BoardVer       string   `json:"Board_Ver,omitempty"`
	CodeIndus      string   `json:"Code_Indus,omitempty"`
	Indice         string   `json:"Indice,omitempty"`
	Software       string   `json:"Software,omitempty"`
	SoftwareVer    string   `json:"Software_Ver,omitempty"`
	Valide         bool     `json:"Valide"`
	IDAssembly     *int     `json:"Id_Assembly,omitempty"`
	IDProcess      *int     `json:"Id_Process,omitempty"`
	QuantCondit    *int     `json:"QuantCondit,omitempty"`
	IDFamille      *int     `json:"Id_Famille,omitempty"`
	Prix           *float64 `json:"prix,omitempty"`
}

// BoardUpdate is a partial update; nil fields are left unchanged.
type BoardUpdate struct {
	RefAsteelFlash *string  `json:"REF_AsteelFlash,omitempty"`
	RefClients     *string  `json:"REF_Clients,omitempty"`
	Designation    *string  `json:"Designation,omitempty"`
	Client         *string  `json:"Client,omitempty"`
	BoardVer       *string  `json:"Board_Ver,omitempty"`
	CodeIndus      *string  `json:"Code_Indus,omitempty"`
	Indice         *string  `json:"Indice,omitempty"`
	Software       *string  `json:"Software,omitempty"`
	SoftwareVer    *string  `json:"Software_Ver,omitempty"`
	Valide         *bool    `json:"Valide,omitempty"`
	IDAssembly     *int     `json:"Id_Assembly,omitempty"`
	IDProcess      *int     `json:"Id_Process,omitempty"`
	QuantCondit    *int     `json:"QuantCondit,omitempty"`
	IDFamille      *int     `json:"Id_Famille,omitempty"`
	Prix           *float64 `json:"prix,omitempty"`
}

// RefStat counts good and bad test results for one board reference.
type RefStat struct {
	RefAsteel string `json:"ref_asteel"`
	GoodCount int    `json:"good_count"`
	BadCount  int    `json:"bad_count"`
}

// RefPriceStat is a RefStat with the board's unit price and the value of the
// good units.
type RefPriceStat struct {
	RefAsteel  string   `json:"ref_asteel"`
	GoodCount  int      `json:"good_count"`
	BadCount   int      `json:"bad_count"`
	UnitPrice  *float64 `json:"unit_price"`
	TotalPrice *float64 `json:"total_price"`
}

// QualityMetrics summarises test results over a time window of one day.
type QualityMetrics struct {
	Date          string         `json:"date"`
	TotalQuantity int            `json:"total_quantity"`
	GoodQuantity  int            `json:"good_quantity"`
	BadQuantity   int            `json:"bad_quantity"`
	DefectDetails map[string]int `json:"defect_details"`
	RefStats      []RefStat      `json:"ref_stats"`
	RefPriceStats []RefPriceStat `json:"ref_price_stats"`
}

// UserCreate is the payload for registering a user.
type UserCreate struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// User is a registered account.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}
