package config

import (
	"strconv"
	"time"
)

// The flag types remember whether they were set on the command line, so a
// config file only fills in what the user did not pass explicitly. They
// satisfy pflag.Value.

type strFlag struct {
	v   string
	set bool
}

func (f *strFlag) String() string     { return f.v }
func (f *strFlag) Set(s string) error { f.v, f.set = s, true; return nil }
func (f *strFlag) Type() string       { return "string" }

type intFlag struct {
	v   int
	set bool
}

func (f *intFlag) String() string { return strconv.Itoa(f.v) }
func (f *intFlag) Set(s string) error {
	i, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	f.v, f.set = i, true
	return nil
}
func (f *intFlag) Type() string { return "int" }

type durFlag struct {
	v   time.Duration
	set bool
}

func (f *durFlag) String() string { return f.v.String() }
func (f *durFlag) Set(s string) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	f.v, f.set = d, true
	return nil
}
func (f *durFlag) Type() string { return "duration" }
