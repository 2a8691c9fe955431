package config_test

import (
	"context"
	"fmt"
	"time"

	"github.com/Peripli/feature-browser/pkg/browser"
	"github.com/Peripli/feature-browser/pkg/config"
	"github.com/Peripli/feature-browser/pkg/sapi"
	"github.com/Peripli/feature-browser/pkg/server"
	"github.com/Peripli/service-manager/pkg/env/envfakes"
	"github.com/Peripli/service-manager/pkg/log"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/spf13/pflag"
)

var _ = Describe("Config", func() {
	var (
		settings *config.Settings
		err      error
	)

	Describe("NewSettings", func() {
		var (
			fakeEnv       *envfakes.FakeEnvironment
			creationError = fmt.Errorf("creation error")
		)

		BeforeEach(func() {
			fakeEnv = &envfakes.FakeEnvironment{}
		})

		Context("when unmarshaling from environment fails", func() {
			It("returns an error", func() {
				fakeEnv.UnmarshalReturns(creationError)

				_, err := config.NewSettings(fakeEnv)
				Expect(err).To(HaveOccurred())
			})
		})

		Context("when unmarshalling is successful", func() {
			var validSettings *config.Settings

			BeforeEach(func() {
				validSettings = &config.Settings{
					Server: &server.Settings{
						Port:            8080,
						RequestTimeout:  5 * time.Second,
						ShutdownTimeout: 5 * time.Second,
						WSPingPeriod:    time.Second,
						WSWriteTimeout:  time.Second,
					},
					Log: &log.Settings{
						Level:  "debug",
						Format: "text",
					},
					Sapi: &sapi.Settings{
						URL:            "https://atlas.example.com/v3_0",
						RequestTimeout: 5 * time.Second,
						PageSize:       10,
						MaxRetryCount:  1,
					},
					Browser: &browser.Settings{
						ScrollThreshold:   10,
						MaxParallelDrains: 2,
						SessionTTL:        time.Minute,
					},
				}

				fakeEnv.UnmarshalStub = func(value interface{}) error {
					val, ok := value.(*config.Settings)
					if ok {
						*val = *validSettings
					}
					return nil
				}
			})

			It("uses the config values from env", func() {
				c, err := config.NewSettings(fakeEnv)

				Expect(err).To(Not(HaveOccurred()))
				Expect(fakeEnv.UnmarshalCallCount()).To(Equal(1))
				Expect(c).Should(Equal(validSettings))
			})
		})
	})

	Describe("DefaultEnv", func() {
		It("loads the defaults and overrides from flags", func() {
			environment, err := config.DefaultEnv(context.Background(), func(set *pflag.FlagSet) {
				set.Set("sapi.page_size", "25")
				set.Set("browser.scroll_threshold", "12")
			})
			Expect(err).ToNot(HaveOccurred())

			settings, err := config.NewSettings(environment)
			Expect(err).ToNot(HaveOccurred())
			Expect(settings.Sapi.PageSize).To(Equal(25))
			Expect(settings.Browser.ScrollThreshold).To(Equal(12))
			Expect(settings.Server.Port).To(Equal(server.DefaultSettings().Port))
			Expect(settings.Validate()).To(Succeed())
		})
	})

	Describe("Validate", func() {
		assertErrorDuringValidate := func() {
			err = settings.Validate()
			Expect(err).To(HaveOccurred())
		}

		BeforeEach(func() {
			settings = config.DefaultSettings()
		})

		Context("when config is valid", func() {
			It("returns no error", func() {
				Expect(settings.Validate()).To(Succeed())
			})
		})

		Context("when server config is invalid", func() {
			It("returns an error", func() {
				settings.Server.RequestTimeout = 0
				assertErrorDuringValidate()
			})
		})

		Context("when log config is invalid", func() {
			It("returns an error", func() {
				settings.Log.Level = ""
				assertErrorDuringValidate()
			})
		})

		Context("when atlas API config is invalid", func() {
			It("returns an error", func() {
				settings.Sapi.URL = ""
				assertErrorDuringValidate()
			})
		})

		Context("when browser config is invalid", func() {
			It("returns an error", func() {
				settings.Browser.MaxParallelDrains = 0
				assertErrorDuringValidate()
			})
		})
	})
})
