package nft

// MetadataSpec is the NEP-177 metadata version the contract reports.
const MetadataSpec = "nft-1.0.0"

// TokenMetadata is the NEP-177 token metadata record.
type TokenMetadata struct {
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	Media         *string `json:"media"`
	MediaHash     *string `json:"media_hash"`
	Copies        *uint64 `json:"copies"`
	IssuedAt      *string `json:"issued_at"`
	ExpiresAt     *string `json:"expires_at"`
	StartsAt      *string `json:"starts_at"`
	UpdatedAt     *string `json:"updated_at"`
	Extra         *string `json:"extra"`
	Reference     *string `json:"reference"`
	ReferenceHash *string `json:"reference_hash"`
}

// Token is a ledger entry as returned by the enumeration views.
type Token struct {
	TokenID  string        `json:"token_id"`
	OwnerID  string        `json:"owner_id"`
	Metadata TokenMetadata `json:"metadata"`
}

// ContractMetadata is the NEP-177 contract level metadata.
type ContractMetadata struct {
	Spec          string  `json:"spec"`
	Name          string  `json:"name"`
	Symbol        string  `json:"symbol"`
	Icon          *string `json:"icon"`
	BaseURI       *string `json:"base_uri"`
	Reference     *string `json:"reference"`
	ReferenceHash *string `json:"reference_hash"`
}

// DefaultContractMetadata describes the karts collection.
func DefaultContractMetadata() ContractMetadata {
	return ContractMetadata{
		Spec:   MetadataSpec,
		Name:   "NEAR Karts",
		Symbol: "NEARKARTS",
	}
}

// String returns a pointer to s, for optional metadata fields.
func String(s string) *string {
	return &s
}

// Uint64 returns a pointer to n.
func Uint64(n uint64) *uint64 {
	return &n
}

// Value dereferences an optional field, defaulting to "".
func Value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
