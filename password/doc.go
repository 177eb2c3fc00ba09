// Package password hashes and verifies account passwords.
//
// # Output format
//
// New hashes are argon2id in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Verification also accepts bcrypt hashes ($2a$, $2b$, $2y$) written by earlier
// deployments. [Hasher.NeedsRehash] reports true for those and for argon2id
// hashes produced with weaker parameters, so the caller can re-hash after the
// next successful login.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords.
//   - Import any other goShop package.
//   - Log plaintext passwords.
package password
