package config

import (
	"bufio"
	"errors"
	"os"
	"reflect"
)

var (
	errNoEnvArg   = errors.New("no env arg")
	ErrInvalidArg = errors.New("invalid arguments")
)

// LoadEnvVar fills *cnd from the environment variable envName if *cnd
// is still its zero value, falling back to defVal if envName is also
// unset. It also honors an envName+"_FILE" variant naming a file whose
// first line holds the value, matching the ingest daemon's secret
// convention. A config file value always wins over the environment —
// env vars only fill in what the file left unset.
func LoadEnvVar(cnd interface{}, envName string, defVal interface{}) error {
	if cnd == nil {
		return ErrInvalidArg
	}
	if reflect.ValueOf(cnd).Kind() != reflect.Ptr {
		return ErrInvalidArg
	}

	switch v := cnd.(type) {
	case *string:
		def, _ := defVal.(string)
		return loadEnvVarString(v, envName, def)
	case *[]string:
		return loadEnvVarList(v, envName)
	default:
		return ErrInvalidArg
	}
}

func loadEnv(nm string) (s string, err error) {
	var ok bool
	if s, ok = os.LookupEnv(nm); ok {
		return
	}
	if fp, ok := os.LookupEnv(nm + "_FILE"); ok {
		return loadEnvFile(fp)
	}
	return "", errNoEnvArg
}

func loadEnvFile(nm string) (string, error) {
	fin, err := os.Open(nm)
	if err != nil {
		return "", err
	}
	defer fin.Close()
	s := bufio.NewScanner(fin)
	s.Scan()
	if err := s.Err(); err != nil {
		return "", err
	}
	return s.Text(), nil
}

func loadEnvVarString(cnd *string, envName, defVal string) error {
	if len(*cnd) > 0 || len(envName) == 0 {
		return nil
	}
	v, err := loadEnv(envName)
	if err != nil {
		if err == errNoEnvArg {
			*cnd = defVal
			return nil
		}
		return err
	}
	*cnd = v
	return nil
}

func loadEnvVarList(lst *[]string, envName string) error {
	if len(*lst) > 0 || len(envName) == 0 {
		return nil
	}
	arg, err := loadEnv(envName)
	if err != nil {
		if err != errNoEnvArg {
			return err
		}
		return nil
	}
	if arg != "" {
		*lst = append(*lst, arg)
	}
	return nil
}
