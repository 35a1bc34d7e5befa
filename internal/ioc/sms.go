package ioc

import (
	"fmt"

	"github.com/fahaniecares/notification-delivery/internal/service/channel"
	"github.com/fahaniecares/notification-delivery/internal/service/channel/sms/client"
	"github.com/gotomicro/ego/core/econf"
)

// InitSMSClient builds the configured gateway client. An empty provider is
// the supported unconfigured state: the SMS channel stays registered and
// every send fails into the delivery log with ErrSMSNotConfigured.
func InitSMSClient() client.Client {
	type Config struct {
		Provider string `yaml:"provider"`
		Aliyun   struct {
			RegionID        string `yaml:"regionId"`
			AccessKeyID     string `yaml:"accessKeyId"`
			AccessKeySecret string `yaml:"accessKeySecret"`
		} `yaml:"aliyun"`
		Tencent struct {
			RegionID  string `yaml:"regionId"`
			SecretID  string `yaml:"secretId"`
			SecretKey string `yaml:"secretKey"`
			AppID     string `yaml:"appId"`
		} `yaml:"tencent"`
	}
	var cfg Config
	err := econf.UnmarshalKey("sms", &cfg)
	if err != nil {
		panic(err)
	}
	switch cfg.Provider {
	case "":
		return nil
	case "aliyun":
		cli, err := client.NewAliyunSMS(cfg.Aliyun.RegionID, cfg.Aliyun.AccessKeyID, cfg.Aliyun.AccessKeySecret)
		if err != nil {
			panic(err)
		}
		return cli
	case "tencentcloud":
		cli, err := client.NewTencentCloudSMS(cfg.Tencent.RegionID, cfg.Tencent.SecretID, cfg.Tencent.SecretKey, cfg.Tencent.AppID)
		if err != nil {
			panic(err)
		}
		return cli
	default:
		panic(fmt.Sprintf("unknown sms provider %q", cfg.Provider))
	}
}

func InitSMSConfig() channel.SMSConfig {
	var cfg channel.SMSConfig
	err := econf.UnmarshalKey("sms.message", &cfg)
	if err != nil {
		panic(err)
	}
	return cfg
}
