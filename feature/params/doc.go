// Package params wraps the AWS SSM Parameter Store for SecureString
// parameters.
//
// Parameters can be addressed by plain name or by full ARN
// (arn:aws:ssm:region:account-id:parameter/path); ARNs are reduced to the
// parameter name before each call. Values are always written as encrypted
// SecureStrings with overwrite semantics and read back with decryption.
//
// The SSM API sits behind a narrow interface so tests can mock it. The
// concrete client resolves credentials from the ambient AWS chain.
//
// # HTTP Endpoints
//
//   - GET    /params/* : Fetch a decrypted parameter.
//   - PUT    /params/* : Create or overwrite a parameter.
//   - DELETE /params/* : Delete a parameter.
package params
