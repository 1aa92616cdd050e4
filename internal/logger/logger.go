package logger

// Logger is the structured logger every vanish component receives.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)
	With(fields ...Field) Logger
	Sync() error
}

// Field represents a structured log field
type Field struct {
	Key   string
	Value interface{}
}

// F is shorthand for building a Field.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Component tags a logger with the component it belongs to.
func Component(l Logger, name string) Logger {
	if l == nil {
		l = NewNop()
	}
	return l.With(Field{Key: "component", Value: name})
}
