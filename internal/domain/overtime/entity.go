package overtime

import "time"

// Entry is one append-only line of an employee's overtime bank. Entries of an
// employee ordered by Seq form a running sum through BalanceAfter.
type Entry struct {
	ID            string
	TenantID      string
	EmployeeID    string
	Seq           int64
	Type          EntryType
	Source        EntrySource
	ReferenceDate time.Time
	// Minutes is signed: credits positive, debits negative.
	Minutes      int
	BalanceAfter int
	// ExpirationDate is set on CREDIT entries only.
	ExpirationDate  *time.Time
	Multiplier      *float64
	OriginalMinutes *int
	Description     string
	TimeRecordID    *string
	// ExpiresEntryID links an EXPIRATION entry to the credit it consumes.
	ExpiresEntryID *string
	ApprovedBy     *string
	CreatedBy      *string
	CreatedAt      time.Time
}

type EntryType string

const (
	EntryCredit     EntryType = "CREDIT"
	EntryDebit      EntryType = "DEBIT"
	EntryAdjustment EntryType = "ADJUSTMENT"
	EntryExpiration EntryType = "EXPIRATION"
	EntryPayout     EntryType = "PAYOUT"
)

var EntryTypeValues = []string{
	string(EntryCredit),
	string(EntryDebit),
	string(EntryAdjustment),
	string(EntryExpiration),
	string(EntryPayout),
}

// EntrySource tells which process appended the entry.
type EntrySource string

const (
	SourceDailySummary EntrySource = "DAILY_SUMMARY"
	SourceManual       EntrySource = "MANUAL"
	SourceSweep        EntrySource = "SWEEP"
)

// Next chains e onto the previous balance.
func (e Entry) Next(previousBalance int) Entry {
	e.BalanceAfter = previousBalance + e.Minutes
	return e
}

// Totals sums entry minutes per type, as positive magnitudes.
type Totals struct {
	Credits     int
	Debits      int
	Adjustments int
	Expirations int
	Payouts     int
}
