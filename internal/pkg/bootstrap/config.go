// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"log"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Config 聚合了服务运行所需的全部配置。
// 通过 CONFIG_PATH 指定 yaml 文件；少数地址类配置支持环境变量覆盖，方便容器部署。
type Config struct {
	Infra struct {
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
		Mysql struct {
			DSN string `yaml:"dsn"`
		} `yaml:"mysql"`
		Kafka struct {
			Brokers []string `yaml:"brokers"`
			Topic   string   `yaml:"topic"`
			GroupID string   `yaml:"group_id"`
		} `yaml:"kafka"`
		Jaeger struct {
			Endpoint string `yaml:"endpoint"`
		} `yaml:"jaeger"`
		Nacos struct {
			ServerAddrs string `yaml:"server_addrs"`
			Namespace   string `yaml:"namespace"`
			Group       string `yaml:"group"`
		} `yaml:"nacos"`
		Zookeeper struct {
			Servers []string `yaml:"servers"`
		} `yaml:"zookeeper"`
	} `yaml:"infra"`

	Cache struct {
		// 分区过期时间抖动窗口，单位小时，防止缓存同时失效
		TTLMinHours int `yaml:"ttl_min_hours"`
		TTLMaxHours int `yaml:"ttl_max_hours"`
	} `yaml:"cache"`

	Services struct {
		TemplateBaseURL   string `yaml:"template_base_url"`
		SettlementBaseURL string `yaml:"settlement_base_url"`
	} `yaml:"services"`
}

var (
	currentConfig Config
	configOnce    sync.Once
)

// Init 加载配置，进程启动时调用一次。找不到配置文件时退回到本地开发默认值。
func Init() {
	configOnce.Do(func() {
		currentConfig = defaultConfig()

		path := os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "config.yaml"
		}
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("config file %s not readable (%v), using defaults", path, err)
		} else if err := yaml.Unmarshal(data, &currentConfig); err != nil {
			log.Fatalf("FATAL: invalid config file %s: %v", path, err)
		}

		applyEnvOverrides(&currentConfig)
	})
}

// GetCurrentConfig 返回已加载的配置。
func GetCurrentConfig() *Config {
	return &currentConfig
}

func defaultConfig() Config {
	var c Config
	c.Infra.Redis.Addr = "localhost:6379"
	c.Infra.Mysql.DSN = "root:root@tcp(localhost:3306)/promoflow?charset=utf8mb4&parseTime=True&loc=Local"
	c.Infra.Kafka.Brokers = []string{"localhost:9092"}
	c.Infra.Kafka.Topic = "promoflow_user_coupon_op"
	c.Infra.Kafka.GroupID = "promoflow-coupon-1"
	c.Infra.Jaeger.Endpoint = "http://localhost:14268/api/traces"
	c.Infra.Nacos.ServerAddrs = "localhost:8848"
	c.Infra.Nacos.Group = "DEFAULT_GROUP"
	c.Infra.Zookeeper.Servers = []string{"localhost:2181"}
	c.Cache.TTLMinHours = 1
	c.Cache.TTLMaxHours = 2
	c.Services.TemplateBaseURL = "http://localhost:7001"
	c.Services.SettlementBaseURL = "http://localhost:7003"
	return c
}

func applyEnvOverrides(c *Config) {
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Infra.Redis.Addr = v
	}
	if v := os.Getenv("MYSQL_DSN"); v != "" {
		c.Infra.Mysql.DSN = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Infra.Kafka.Brokers = []string{v}
	}
	if v := os.Getenv("JAEGER_ENDPOINT"); v != "" {
		c.Infra.Jaeger.Endpoint = v
	}
	if v := os.Getenv("NACOS_SERVER_ADDRS"); v != "" {
		c.Infra.Nacos.ServerAddrs = v
	}
	if v := os.Getenv("NACOS_NAMESPACE"); v != "" {
		c.Infra.Nacos.Namespace = v
	}
	if v := os.Getenv("NACOS_GROUP"); v != "" {
		c.Infra.Nacos.Group = v
	}
}
