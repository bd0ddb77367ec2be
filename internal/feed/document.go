package feed

import "gopkg.in/yaml.v3"

// document mirrors the YAML a shop publishes.
type document struct {
	Shop       string     `yaml:"shop"`
	Categories []category `yaml:"categories"`
	Goods      []good     `yaml:"goods"`
}

type category struct {
	ID   int64  `yaml:"id"`
	Name string `yaml:"name"`
}

type good struct {
	ID         int64          `yaml:"id"`
	Category   int64          `yaml:"category"`
	Model      string         `yaml:"model"`
	Name       string         `yaml:"name"`
	Price      yaml.Node      `yaml:"price"`
	PriceRRC   yaml.Node      `yaml:"price_rrc"`
	Quantity   int            `yaml:"quantity"`
	Parameters map[string]any `yaml:"parameters"`
}
