// Package firmware implements the OCPP 1.6J Firmware Management
// Profile: diagnostics upload, firmware download/install, and their
// asynchronous status notifications.
package firmware
