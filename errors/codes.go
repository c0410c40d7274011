package errors

// ErrorCode identifies an application error class in API responses
type ErrorCode int

const (
	ErrorCode_HTTP_OK ErrorCode = 0

	// General
	ErrorCode_INTERNAL         ErrorCode = 1000
	ErrorCode_INVALID_ARGUMENT ErrorCode = 1001
	ErrorCode_NOT_FOUND        ErrorCode = 1002
	ErrorCode_ALREADY_EXISTS   ErrorCode = 1003
	ErrorCode_CONFLICT         ErrorCode = 1004
	ErrorCode_INVALID_PAYLOAD  ErrorCode = 1005

	// Analysis pipeline
	ErrorCode_ANALYSIS_NOT_FOUND          ErrorCode = 2000
	ErrorCode_ANALYSIS_INVALID_STATE      ErrorCode = 2001
	ErrorCode_VALIDATION_REJECTED         ErrorCode = 2002
	ErrorCode_EXTRACTION_PARTIAL_FAILURE  ErrorCode = 2003
	ErrorCode_EXTRACTION_FAILED           ErrorCode = 2004
	ErrorCode_AI_UNAVAILABLE              ErrorCode = 2005
	ErrorCode_AI_RESPONSE_INVALID         ErrorCode = 2006
	ErrorCode_SCORE_UNRESOLVABLE          ErrorCode = 2007
	ErrorCode_INVALID_CHECKLIST           ErrorCode = 2008
	ErrorCode_INVALID_WEIGHT_PROFILE      ErrorCode = 2009
	ErrorCode_BATCH_PAGE_WRITE_FAILURE    ErrorCode = 2010
	ErrorCode_RECOMPUTE_IN_PROGRESS       ErrorCode = 2011
	ErrorCode_WEIGHT_PROFILE_NOT_RESOLVED ErrorCode = 2012

	// Integrations
	ErrorCode_INTEGRATION_STORAGE_FAILED      ErrorCode = 3000
	ErrorCode_INTEGRATION_CACHE_FAILED        ErrorCode = 3001
	ErrorCode_INTEGRATION_EXTERNAL_API_FAILED ErrorCode = 3002
	ErrorCode_INTEGRATION_MEDIA_FAILED        ErrorCode = 3003

	// Database
	ErrorCode_DB_CONNECTION_FAILED  ErrorCode = 4000
	ErrorCode_DB_QUERY_FAILED       ErrorCode = 4001
	ErrorCode_DB_TRANSACTION_FAILED ErrorCode = 4002
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCode_HTTP_OK:                         "HTTP_OK",
	ErrorCode_INTERNAL:                        "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:                "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:                       "NOT_FOUND",
	ErrorCode_ALREADY_EXISTS:                  "ALREADY_EXISTS",
	ErrorCode_CONFLICT:                        "CONFLICT",
	ErrorCode_INVALID_PAYLOAD:                 "INVALID_PAYLOAD",
	ErrorCode_ANALYSIS_NOT_FOUND:              "ANALYSIS_NOT_FOUND",
	ErrorCode_ANALYSIS_INVALID_STATE:          "ANALYSIS_INVALID_STATE",
	ErrorCode_VALIDATION_REJECTED:             "VALIDATION_REJECTED",
	ErrorCode_EXTRACTION_PARTIAL_FAILURE:      "EXTRACTION_PARTIAL_FAILURE",
	ErrorCode_EXTRACTION_FAILED:               "EXTRACTION_FAILED",
	ErrorCode_AI_UNAVAILABLE:                  "AI_UNAVAILABLE",
	ErrorCode_AI_RESPONSE_INVALID:             "AI_RESPONSE_INVALID",
	ErrorCode_SCORE_UNRESOLVABLE:              "SCORE_UNRESOLVABLE",
	ErrorCode_INVALID_CHECKLIST:               "INVALID_CHECKLIST",
	ErrorCode_INVALID_WEIGHT_PROFILE:          "INVALID_WEIGHT_PROFILE",
	ErrorCode_BATCH_PAGE_WRITE_FAILURE:        "BATCH_PAGE_WRITE_FAILURE",
	ErrorCode_RECOMPUTE_IN_PROGRESS:           "RECOMPUTE_IN_PROGRESS",
	ErrorCode_WEIGHT_PROFILE_NOT_RESOLVED:     "WEIGHT_PROFILE_NOT_RESOLVED",
	ErrorCode_INTEGRATION_STORAGE_FAILED:      "INTEGRATION_STORAGE_FAILED",
	ErrorCode_INTEGRATION_CACHE_FAILED:        "INTEGRATION_CACHE_FAILED",
	ErrorCode_INTEGRATION_EXTERNAL_API_FAILED: "INTEGRATION_EXTERNAL_API_FAILED",
	ErrorCode_INTEGRATION_MEDIA_FAILED:        "INTEGRATION_MEDIA_FAILED",
	ErrorCode_DB_CONNECTION_FAILED:            "DB_CONNECTION_FAILED",
	ErrorCode_DB_QUERY_FAILED:                 "DB_QUERY_FAILED",
	ErrorCode_DB_TRANSACTION_FAILED:           "DB_TRANSACTION_FAILED",
}

// String returns the symbolic name of the code
func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

// MarshalText renders the code by name in JSON responses
func (c ErrorCode) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
