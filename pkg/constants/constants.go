// Package constants provides shared constants for the mortgage-trust application.
package constants

// DateLayout is the calendar date format used in config files, statement
// rows and output.
const DateLayout = "2006-01-02"

// Monetary and rate constants
const (
	// CentsPerDollar is the number of minor units in one major unit
	CentsPerDollar = 100

	// RateScale is the fixed denominator for integer rates (parts per billion)
	RateScale int64 = 1_000_000_000

	// MaxAnnualRate is the highest accepted annual rate, as a decimal string (200%)
	MaxAnnualRate = "2"

	// AnnuityPrecision is the number of decimal digits kept while evaluating
	// the level-payment formula
	AnnuityPrecision = 40

	// FractionPrecision is the number of decimal digits in day-count fractions
	FractionPrecision = 16
)

// Calendar constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// BiWeeklyPeriodsPerYear is the number of bi-weekly payments in a year
	BiWeeklyPeriodsPerYear = 26

	// WeeklyPeriodsPerYear is the number of weekly payments in a year
	WeeklyPeriodsPerYear = 52

	// DaysPerWeek is the number of days in a week
	DaysPerWeek = 7

	// ThirtyDayMonth is the day-of-month clamp for the 30/360 banker's rule
	ThirtyDayMonth = 30

	// LongestAccrualInterval is the most actual days between two monthly
	// payment dates
	LongestAccrualInterval = 31
)

// Schedule and reconciliation constants
const (
	// InvariantToleranceCents is the project-wide rounding tolerance used by
	// schedule cross-checks
	InvariantToleranceCents = 1

	// DailyIterationMultiplier bounds the daily generator at this multiple of
	// the declared term
	DailyIterationMultiplier = 2

	// DefaultMoneyToleranceCents is the default statement matching tolerance
	DefaultMoneyToleranceCents = 1

	// MaxDiagnosticRows is the number of differing rows kept for diagnostics
	MaxDiagnosticRows = 5
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix is the environment variable prefix read by viper
	EnvPrefix = "MORTGAGE_TRUST"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for YAML jobs (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024

	// CacheBackendMemory keeps computed schedules in process memory
	CacheBackendMemory = "memory"

	// CacheBackendRedis keeps computed schedules in Redis
	CacheBackendRedis = "redis"

	// CacheBackendNone disables the schedule cache
	CacheBackendNone = "none"

	// DefaultCacheTTLSeconds is the default lifetime of a cached schedule
	DefaultCacheTTLSeconds = 3600

	// DefaultMemoryCacheEntries caps the in-memory schedule cache
	DefaultMemoryCacheEntries = 512
)

// Validation constants
const (
	// MaxRecommendedTermMonths is the longest term accepted without a warning
	MaxRecommendedTermMonths = 480

	// HighRateWarning is the annual rate above which a warning is emitted
	HighRateWarning = "0.25"
)
