package consts

// Tables
const (
	DBLedger = "ledger"
	DBTokens = "tokens"
)

// Ledger
const (
	QLedgerFingerprint = "fingerprint"
	QLedgerSourceURL   = "source_url"
	QLedgerLocalPath   = "local_path"
	QLedgerSizeBytes   = "size_bytes"
	QLedgerMediaKind   = "media_kind"
	QLedgerFetchedAt   = "fetched_at"
	QLedgerVerified    = "verified"
)

// Tokens
const (
	QTokenID          = "id"
	QTokenValue       = "value"
	QTokenExtractedAt = "extracted_at"
	QTokenValidatedAt = "last_validated_at"
	QTokenState       = "state"
	QTokenUpdatedAt   = "updated_at"
)
