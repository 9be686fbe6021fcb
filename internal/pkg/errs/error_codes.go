/*
Package errs provides the application error type and error code constants.

The codes identify specific business or system failures both inside the
server and on the wire to clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates an unsupported Content-Type header.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates a malformed JSON request body.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates trailing content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrFormParseFailed indicates failure to parse multipart form data.
	ErrFormParseFailed = 1005

	// ErrRequestEntityTooLarge indicates the request body exceeded the server limit.
	ErrRequestEntityTooLarge = 1006

	// ErrRateLimitExceeded indicates the request rate went over the configured limit.
	ErrRateLimitExceeded = 1007
)

// 2xxx: Signaling Errors
const (
	// ErrDuplicateConnection indicates a connection id collision in the
	// registry. Transport ids are unique, so this is a server-side bug.
	ErrDuplicateConnection = 2101
)

// 3xxx: Assistant and Prescription Business Errors
const (
	// ErrMissingQuestion indicates a chat request without a question.
	ErrMissingQuestion = 3101

	// ErrMissingText indicates a speech request without text to synthesize.
	ErrMissingText = 3102

	// ErrNoImageProvided indicates a scan request carrying no image at all.
	ErrNoImageProvided = 3103

	// ErrInvalidImageData indicates image data that could not be decoded.
	ErrInvalidImageData = 3104
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified internal server error.
	ErrUnknown = 5000

	// ErrUpstreamService indicates a collaborator service (speech, OCR, RAG)
	// failed or was unreachable.
	ErrUpstreamService = 5001

	// ErrDatabaseFailure indicates a persistence operation failed.
	ErrDatabaseFailure = 5002

	// ErrStorageFailed indicates an object storage operation failed.
	ErrStorageFailed = 5003
)
