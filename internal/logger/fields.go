package logger

import "go.uber.org/zap"

// Common field constructors so keys stay consistent across packages.

func RequestID(id string) zap.Field { return zap.String("request_id", id) }
func ExternalID(id string) zap.Field { return zap.String("external_id", id) }
func Flow(name string) zap.Field { return zap.String("flow", name) }
func Provider(name string) zap.Field { return zap.String("provider", name) }
func Op(name string) zap.Field { return zap.String("op", name) }
func Status(code int) zap.Field { return zap.Int("status", code) }
func Err(err error) zap.Field { return zap.Error(err) }
func ClientIP(ip string) zap.Field { return zap.String("client_ip", ip) }
func Email(addr string) zap.Field { return zap.String("email", addr) }
func Method(m string) zap.Field { return zap.String("method", m) }
func Path(p string) zap.Field { return zap.String("path", p) }
