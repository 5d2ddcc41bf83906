// Package secure keeps resolved secret values in encrypted memory.
//
// Values read from a store during push and sync are held in memguard
// enclaves (XSalsa20Poly1305, mlocked where the platform allows) until they
// are handed to a target, and are dropped as soon as the operation ends.
//
//	values := secure.NewValues()
//	defer values.Destroy()
//
//	if err := values.Put("OPENAI_API_KEY", v); err != nil {
//	    return err
//	}
//	plain, err := values.Get("OPENAI_API_KEY")
//
// Anything decrypted for use is copied into ordinary Go memory, so the
// protection covers the waiting period, not the final consumer. Call
// memguard.Purge at process exit to wipe remaining key material.
package secure
