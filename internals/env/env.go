package env

import (
	"fmt"
	"strconv"

	z "github.com/Oudwins/zog"
	"github.com/Oudwins/zog/zenv"
)

type EnvStruct struct {
	HOME        string `zog:"HOME"`
	PORT        int    `zog:"BOTDESK_PORT"`
	TOKEN       string `zog:"BOTDESK_TOKEN"`
	DATA_DIR    string `zog:"BOTDESK_DATA_DIR"`
	LISTEN_ADDR string
	BASE_URL    string
}

var EnvSchema = z.Struct(z.Shape{
	"HOME":     z.String(),
	"PORT":     z.Int().Default(57880),
	"TOKEN":    z.String().Optional().Trim(),
	"DATA_DIR": z.String().Optional().Trim(),
})

// Load parses the process environment. Every command loads it afresh so flags
// and tests see the current values.
func Load() (*EnvStruct, error) {
	loaded := &EnvStruct{}
	if errs := EnvSchema.Parse(zenv.NewDataProvider(), loaded); errs != nil {
		return nil, fmt.Errorf("invalid environment:\n%s", z.Issues.Prettify(errs))
	}
	loaded.LISTEN_ADDR = "localhost:" + strconv.Itoa(loaded.PORT)
	loaded.BASE_URL = "http://" + loaded.LISTEN_ADDR
	return loaded, nil
}
