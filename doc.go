// Package gate decides, per content item, whether a requester may read
// it. Three access modes are supported: open, password, and email-list.
//
// Rules:
//   - AccessRule binds one (content type, slug) pair to an access mode
//     plus its credential material (a bcrypt password hash or an email
//     allowlist). Content with no rule is open by default, so most of a
//     site never touches the gate.
//   - Rules live in Bun-backed repositories behind the Rules interface;
//     swap in an in-memory fake for tests.
//
// Verification:
//   - Verifier is the request-facing orchestrator: it loads the rule,
//     runs the pure Evaluate decision, mints a signed access token on
//     grant, and records exactly one audit entry per attempt via an
//     AuditSink. Denials are results, not errors; only storage faults
//     surface as errors.
//   - Tokens are HS256 JWTs embedding the content type and slug with a
//     24h default TTL. Validate rejects bad signatures, expiry, and
//     scope mismatches before any content is served.
//
// Audit sinks:
//   - AuditSink mirrors the attempt stream to storage. The bundled
//     repository sink appends to the access log table the internal
//     /logs and /stats endpoints read from. Passwords are never
//     written to the log, only the submitted email for email-list
//     attempts.
package gate
