package translator

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Endpoint string        `mapstructure:"endpoint"`
	Key      string        `mapstructure:"key"`
	Region   string        `mapstructure:"region"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func Setup(v *viper.Viper, prefix string) {
	p := func(key string) string { return prefix + "." + key }

	v.SetDefault(p("endpoint"), "https://api.cognitive.microsofttranslator.com")
	v.SetDefault(p("key"), "")
	v.SetDefault(p("region"), "")
	v.SetDefault(p("timeout"), 10*time.Second)
}
