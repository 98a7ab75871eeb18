// Package password hashes and verifies user passwords.
//
// BcryptHasher and Argon2Hasher implement Hasher for one algorithm each.
// NewHasher builds a Multi from Config: it hashes with the configured
// algorithm and verifies hashes of either, so a deployment can switch
// algorithms or raise costs while existing users keep logging in.
//
//	h := password.NewHasher(password.Config{Algorithm: password.AlgorithmArgon2id})
//	hash, err := h.Hash("correct horse")
//	err = h.Verify("correct horse", hash) // password.ErrMismatch on mismatch
//	if h.NeedsRehash(oldHash) {
//	    // store a fresh hash after a successful Verify
//	}
package password
