package model

// PurchaseReceipt is the normalized payload of a verified purchase receipt
// credential.  The raw receipt nests its fields in slightly different shapes
// depending on the client SDK version (`product` may be an object carrying a
// `sku` or a bare SKU string); the verifier flattens all of them into this
// one structure at the boundary and anything that does not fit is rejected
// there.  Receipts are transient: only their effect is persisted, never the
// receipt itself.
//
// Fields:
//  SKU           – purchased product identifier (e.g. "TIP_500").
//  PayerID       – platform user id of the purchaser.
//  TransactionID – platform transaction id; may be empty on older receipts,
//                  in which case a digest of the signed token serves as the
//                  idempotency key instead.
//  CostUnits     – price in Bits as reported by the receipt, zero if absent.
type PurchaseReceipt struct {
	SKU           string
	PayerID       string
	TransactionID string
	CostUnits     int64
}
