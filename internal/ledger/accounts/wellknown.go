package accounts

// Control accounts the document translators post against. These codes ship
// in the seed chart of accounts and are never deactivated.
const (
	CodeBank             = "1-10200" // Bank operasional
	CodeAR               = "1-10300" // Piutang usaha
	CodeVATIn            = "1-10600" // PPN Masukan
	CodeAP               = "2-10100" // Utang usaha
	CodeVATOut           = "2-10200" // PPN Keluaran
	CodePPh23Payable     = "2-10300" // Utang PPh 23 (dipotong dari vendor)
	CodePPh23Prepaid     = "1-10700" // PPh 23 dibayar di muka (dipotong klien)
	CodeRetainedEarnings = "3-10200" // Laba ditahan
)
