package main

import (
	"context"
	"crypto/tls"
	"log"
	"os/signal"
	"syscall"
	"time"

	"chargepoint/alerting"
	"chargepoint/api"
	"chargepoint/boot"
	"chargepoint/chargepoint"
	"chargepoint/dispatcher"
	"chargepoint/internal/config"
	"chargepoint/internal/logx"
	"chargepoint/internal/store/mongostore"
	"chargepoint/metrics"
	"chargepoint/ocpp/core"
	"chargepoint/ocpp/types"
	"chargepoint/profiles"
	"chargepoint/transport"
)

func main() {
	conf, err := config.GetConfig()
	if err != nil {
		log.Println("configuration load failed", err)
		return
	}

	logHandler := logx.New()
	repo := mongostore.New(conf.Mongo.URI, conf.Mongo.Database)

	alerts, err := alerting.New(conf.Telegram.BotToken, nil, logHandler)
	if err != nil {
		logHandler.Warn("alerting sink disabled: " + err.Error())
	}

	cp := chargepoint.New(buildConfig(conf, logHandler), repo, logHandler, alerts, buildCallbacks(logHandler))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cp.Start(ctx); err != nil {
		logHandler.Error("charge point failed to start", err)
		alerts.Fatal("chargepoint", err.Error())
		return
	}
	defer cp.Stop()

	go func() {
		if err := metrics.Listen(conf); err != nil {
			logHandler.Warn("metrics listener stopped: " + err.Error())
		}
	}()

	go func() {
		if err := api.Listen(conf, cp, logHandler); err != nil {
			logHandler.Warn("diagnostics endpoint stopped: " + err.Error())
		}
	}()

	<-ctx.Done()
}

// buildConfig translates the process-bootstrap settings in
// internal/config into the runtime graph chargepoint.New assembles,
// the way the teacher's own main.go never needed to because
// core.NewCentralSystem read nothing from config at all.
func buildConfig(conf *config.Config, log logx.Handler) chargepoint.Config {
	connectorIds := make([]int, 0, conf.ChargePoint.Connectors)
	for i := 1; i <= conf.ChargePoint.Connectors; i++ {
		connectorIds = append(connectorIds, i)
	}

	return chargepoint.Config{
		Identity: boot.Identity{
			Vendor:          conf.ChargePoint.Vendor,
			Model:           conf.ChargePoint.Model,
			SerialNumber:    conf.ChargePoint.SerialNumber,
			FirmwareVersion: conf.ChargePoint.FirmwareVersion,
		},
		ConnectorIds:                    connectorIds,
		MinimumStatusDuration:           5 * time.Second,
		MeterValueSampleInterval:        time.Minute,
		ClockAlignedDataInterval:        15 * time.Minute,
		TransactionMessageAttempts:      3,
		TransactionMessageRetryInterval: 10 * time.Second,
		ReservationProfileEnabled:       true,
		ProfileLimits: profiles.Limits{
			MaxStackLevel:         10,
			MaxProfilesInstalled:  20,
			MaxSchedulePeriods:    24,
			AllowedRateUnits:      []types.ChargingRateUnitType{types.ChargingRateUnitWatts, types.ChargingRateUnitAmperes},
			DefaultNumberOfPhases: 3,
		},
		Transport: transport.Config{
			Endpoint:        conf.CentralSystem.Endpoint,
			ChargePointId:   conf.ChargePoint.Identity,
			BasicAuthUser:   conf.CentralSystem.BasicAuthUser,
			BasicAuthPass:   conf.CentralSystem.BasicAuthPass,
			ClientCert:      loadClientCert(conf, log),
			SecurityProfile: transport.SecurityProfile(conf.CentralSystem.SecurityProfile),
			FallbackProfile: transport.SecurityProfile(conf.CentralSystem.FallbackProfile),
			ReconnectBase:   time.Second,
			ReconnectMax:    time.Minute,
		},
		LocalPreAuthorize:          true,
		LocalAuthorizeOffline:      true,
		AllowOfflineTxForUnknownId: false,
	}
}

func loadClientCert(conf *config.Config, log logx.Handler) *tls.Certificate {
	if conf.CentralSystem.ClientCertFile == "" || conf.CentralSystem.ClientKeyFile == "" {
		return nil
	}
	cert, err := tls.LoadX509KeyPair(conf.CentralSystem.ClientCertFile, conf.CentralSystem.ClientKeyFile)
	if err != nil {
		log.Warn("loading client certificate failed: " + err.Error())
		return nil
	}
	return &cert
}

// buildCallbacks wires the dispatcher's EVSE-facing hooks to logging
// stand-ins: a real deployment replaces each of these with calls into
// its own EVSE hardware driver, which is outside this runtime's scope.
func buildCallbacks(log logx.Handler) dispatcher.Callbacks {
	return dispatcher.Callbacks{
		EnableEvse:  func(connectorId int) { log.FeatureEvent("EVSE", "", "enable requested") },
		DisableEvse: func(connectorId int) { log.FeatureEvent("EVSE", "", "disable requested") },
		PauseCharging: func(connectorId int) {
			log.FeatureEvent("EVSE", "", "pause requested")
		},
		ResumeCharging: func(connectorId int) {
			log.FeatureEvent("EVSE", "", "resume requested")
		},
		ProvideToken: func(idTag string, connectorIds []int, prevalidated bool) {
			log.FeatureEvent("Authorize", idTag, "remote token provided")
		},
		StopTransactionCallback: func(connectorId int, reason core.Reason) bool {
			log.FeatureEvent("RemoteStopTransaction", "", string(reason))
			return true
		},
		UnlockConnectorCallback: func(connectorId int) bool {
			log.FeatureEvent("UnlockConnector", "", "unlock requested")
			return true
		},
		SetMaxCurrent: func(connectorId int, amps float64) {
			log.FeatureEvent("SmartCharging", "", "max current updated")
		},
		IsResetAllowed: func(resetType core.ResetType) bool { return true },
		ResetCallback: func(resetType core.ResetType) {
			log.FeatureEvent("Reset", "", string(resetType))
		},
		ConnectionStateChanged: func(connected bool) {
			log.Debug("connection state changed")
		},
	}
}
