package history

import "errors"

var ErrMissingSetting = errors.New("missing influxdb setting")
