// Package localauth authenticates users with an email and password.
//
// It is only an adapter: the user records come from two lookup functions
// supplied by the caller (by email and by id), passwords are checked by a
// passwd.Verifier, and sessions are handled by the passport framework the
// strategy is registered with.
//
// A login attempt has exactly three outcomes:
//
//   - success, the email exists and the password matches the stored hash;
//   - failure, either no user has that email or the password is wrong, the
//     message can be shown to the user;
//   - error, the lookup or the hash comparison itself failed, the cause is
//     forwarded to the framework and never reported as a wrong password.
//
// Only the user id is stored in the session, every request that needs the
// user loads it again through the by-id lookup.
//
// The strategy keeps no state between calls and can be used concurrently.
// Whether emails are compared case sensitively is up to the lookup function.
package localauth
