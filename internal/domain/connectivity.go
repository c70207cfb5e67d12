package domain

// ConnectivityResult is the normalized outcome of a connectivity test
// against an external service (database, image CDN, search index).
type ConnectivityResult struct {
	OK        bool
	ErrorCode ErrorCode
	LatencyMs int64
	RayIDs    []string
	Details   string
}

// DBErrorKind is the closed set of database error classifications.
type DBErrorKind string

const (
	// DBErrTimeout covers connection loss and statement/connect timeouts.
	DBErrTimeout DBErrorKind = "timeout"
	// DBErrAuthFailed covers rejected credentials.
	DBErrAuthFailed DBErrorKind = "auth_failed"
	// DBErrSQL covers any other error the driver reported with a code.
	DBErrSQL DBErrorKind = "sql_error"
	// DBErrUnknown covers everything the classifier could not place.
	DBErrUnknown DBErrorKind = "unknown"
)

// DBErrorInfo is the classified form of a database error.
type DBErrorInfo struct {
	Kind     DBErrorKind
	Message  string
	SQLState string
}

// ErrorCode translates the database error kind into the API taxonomy.
func (i DBErrorInfo) ErrorCode() ErrorCode {
	switch i.Kind {
	case DBErrTimeout:
		return ErrTimeout
	case DBErrAuthFailed:
		return ErrAuthFailed
	case DBErrSQL:
		return ErrSQLError
	default:
		return ErrUnknown
	}
}

// HealthStatus represents the health status of the service.
type HealthStatus struct {
	Status    string            `json:"status"` // healthy, unhealthy, degraded
	Version   string            `json:"version"`
	Checks    map[string]string `json:"checks"`
	Timestamp string            `json:"timestamp"`
}
