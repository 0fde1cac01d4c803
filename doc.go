// Package users provides a user-account management core: registration with
// email verification, credential login issuing JWT bearer tokens, role gated
// CRUD over user records, and account lockout after repeated failed logins.
//
// Account lockout:
//   - Users carry a FailedLoginAttempts counter and an IsLocked flag. Both
//     are written by a single storage statement, so the invariant
//     IsLocked == (FailedLoginAttempts >= threshold) holds even under
//     concurrent login attempts against the same account.
//   - Locked accounts reject logins before any password verification runs.
//     There is no time based unlock; only an explicit administrative Unlock
//     clears the flag.
//
// Tokens:
//   - TokenService issues stateless HS256 JWTs carrying the subject id and a
//     canonical (uppercase) role, with short TTLs. Verification is a pure
//     signature plus expiry check; no server side session store exists, so
//     an issued token cannot be revoked before it expires.
//
// Roles:
//   - Role is a closed enumeration (ANONYMOUS, AUTHENTICATED, MANAGER,
//     ADMIN). Raw strings are canonicalized once at the boundary via
//     ParseRole; every internal comparison is an exact match over the
//     enumeration.
package users
