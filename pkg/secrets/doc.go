// Package secrets seals tenant secrets, such as webhook signing secrets, for
// storage.
//
// A Sealer holds one master key. For every tenant it derives a data key with
// HKDF-SHA-256 (salt: the tenant id) and encrypts with AES-256-GCM, binding
// the tenant id as additional data. Sealed values are text of the form
// "v1:<base64(nonce|ciphertext|tag)>" and fit in a regular text column.
//
//	key, err := secrets.ParseKey(os.Getenv("SECRETS_KEY"))
//	sealer, err := secrets.NewSealer(key)
//	stored, err := sealer.Seal(tenantID, "whsec_...")
//	plain, err := sealer.Open(tenantID, stored)
package secrets
