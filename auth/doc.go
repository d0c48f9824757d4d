// Package auth provides the credential side of the storefront: user records,
// password hashing, reset tokens, JWT issuance and the fiber handlers and
// gates that compose them.
//
// Flow:
//   - Register, Login, ForgotPassword and ResetPassword are exposed by
//     AuthController. Writes go through command handlers that run inside a
//     RepositoryManager transaction.
//   - ProtectedRoute builds the Auth Gate (middleware/jwtware) which verifies
//     the bearer token with TokenService and attaches the *User to the fiber
//     locals. RequireRoles must be mounted after it.
//
// Reset tokens:
//   - Only the sha256 digest of a reset token is persisted. The cleartext
//     value exists in the delivered link and nowhere else. When delivery fails
//     the stored digest and expiry are cleared before the error is returned.
//
// Activity sinks:
//   - ActivitySink receives register, login and password reset events. Sinks
//     run best-effort (errors are logged) so they can forward to a queue
//     without blocking authentication.
package auth
