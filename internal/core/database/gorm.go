package database

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
)

var ErrUnsupportedDriver = errors.New("unsupported db driver")

type Opts struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	LogLevel           string
	Logger             *zap.Logger
}

// NewGorm 打开 postgres / mysql 连接；memory 驱动不经过这里
func NewGorm(o Opts) (*gorm.DB, error) {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	var dial gorm.Dialector
	switch o.Driver {
	case "postgres":
		dial = postgres.Open(o.DSN)
	case "mysql":
		dsn := normalizeMySQLDSN(o.DSN, o.Username, o.Password)
		o.Logger.Info("mysql dsn", zap.String("dsn", maskDSN(dsn)))
		dial = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, o.Driver)
	}
	db, err := gorm.Open(dial, &gorm.Config{
		Logger:         gormLogger(o.Logger, o.LogLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", o.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(o.MaxOpenConns)
	sqlDB.SetMaxIdleConns(o.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(o.ConnMaxLifetimeMin) * time.Minute)
	// 写操作的事务由调用方的 Transaction 管理
	return db.Session(&gorm.Session{PrepareStmt: true, SkipDefaultTransaction: true}), nil
}

// Migrate 建表/补列，models 由调用方给出
func Migrate(db *gorm.DB, models ...any) error {
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

// IsDuplicateKey 识别唯一约束冲突，文本匹配兜底未翻译的驱动错误
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}

// jdbc 风格参数到 go-sql-driver 参数的映射；目标为空表示丢弃
var jdbcParams = []struct{ from, to string }{
	{"characterEncoding", "charset"},
	{"serverTimezone", "loc"},
	{"useSSL", "tls"},
	{"useUnicode", ""},
	{"zeroDateTimeBehavior", ""},
}

func tlsMode(useSSL string) string {
	switch strings.ToLower(useSSL) {
	case "true", "1":
		return "true"
	case "skip-verify", "preferred":
		return strings.ToLower(useSSL)
	}
	return "false"
}

// normalizeMySQLDSN 把 mysql:// 或 jdbc:mysql:// URL 改写为 user:pass@tcp(host)/db?...；
// 原生 DSN 原样返回
func normalizeMySQLDSN(input, user, pass string) string {
	in := strings.TrimPrefix(strings.TrimSpace(input), "jdbc:")
	if !strings.HasPrefix(in, "mysql://") {
		return strings.TrimSpace(input)
	}
	u, err := url.Parse(in)
	if err != nil {
		return in
	}

	q := u.Query()
	urlUser, urlPass := credentials(u, q)
	user = cmpOr(user, urlUser)
	pass = cmpOr(pass, urlPass)

	for _, p := range jdbcParams {
		v := q.Get(p.from)
		q.Del(p.from)
		if v == "" || p.to == "" || q.Get(p.to) != "" {
			continue
		}
		if p.to == "tls" {
			v = tlsMode(v)
		}
		q.Set(p.to, v)
	}
	if q.Get("parseTime") == "" {
		q.Set("parseTime", "true")
	}
	if q.Get("charset") == "" {
		q.Set("charset", "utf8mb4")
	}

	var b strings.Builder
	if user != "" {
		b.WriteString(user)
		if pass != "" {
			b.WriteString(":" + pass)
		}
		b.WriteString("@")
	}
	fmt.Fprintf(&b, "tcp(%s)/%s?%s", u.Host, strings.TrimPrefix(u.Path, "/"), q.Encode())
	return b.String()
}

// credentials 取 URL userinfo，query 里的 user/password 优先，并从 q 中移除
func credentials(u *url.URL, q url.Values) (user, pass string) {
	if u.User != nil {
		user = u.User.Username()
		pass, _ = u.User.Password()
	}
	user = cmpOr(q.Get("user"), user)
	pass = cmpOr(q.Get("password"), pass)
	q.Del("user")
	q.Del("password")
	return user, pass
}

// maskDSN 隐藏 user:pass@ 里的密码
func maskDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	if at < 0 {
		return dsn
	}
	colon := strings.Index(dsn[:at], ":")
	if colon < 0 {
		return dsn
	}
	return dsn[:colon+1] + "****" + dsn[at:]
}

// zapWriter 让 gorm 的日志走 zap
type zapWriter struct{ l *zap.SugaredLogger }

func (w zapWriter) Printf(format string, args ...any) { w.l.Infof(format, args...) }

func gormLogger(l *zap.Logger, level string) logger.Interface {
	lvl := logger.Warn
	switch level {
	case "silent":
		lvl = logger.Silent
	case "error":
		lvl = logger.Error
	case "info":
		lvl = logger.Info
	}
	return logger.New(zapWriter{l.Named("gorm").WithOptions(zap.AddCallerSkip(3)).Sugar()}, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  lvl,
		IgnoreRecordNotFoundError: true,
	})
}

// cmpOr mirrors cmp.Or (Go 1.22+): returns the first argument that is not the zero value.
func cmpOr[T comparable](vals ...T) T {
	var zero T
	for _, v := range vals {
		if v != zero {
			return v
		}
	}
	return zero
}
