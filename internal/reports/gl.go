package reports

// BuildGeneralLedger threads a running balance through an account's entries.
// The running figure moves on the account's normal side, so a debit-normal
// account grows with debits.
func BuildGeneralLedger(accountCode, accountName, period string, debitNormal bool, opening int64, entries []LedgerEntry) GeneralLedger {
	gl := GeneralLedger{
		AccountCode: accountCode,
		AccountName: accountName,
		Period:      period,
		Opening:     opening,
	}
	running := opening
	for _, e := range entries {
		if debitNormal {
			running += e.Debit - e.Credit
		} else {
			running += e.Credit - e.Debit
		}
		e.Running = running
		gl.Entries = append(gl.Entries, e)
	}
	gl.Closing = running
	return gl
}
