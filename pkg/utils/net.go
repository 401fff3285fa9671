package utils

import (
	"net"
)

// GetLocalIP 返回本机首个非回环 IPv4 地址，取不到时返回 "unknown"。
// 仅用于 client.id 这类标识用途，失败不影响业务。
func GetLocalIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "unknown"
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			return ip4.String()
		}
	}
	return "unknown"
}
