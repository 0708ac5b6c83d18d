package utils

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	fhttp "github.com/bogdanfinn/fhttp"
	"github.com/bogdanfinn/fhttp/http2"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	tls "github.com/bogdanfinn/utls"
)

const DefaultTimeoutSeconds = 15

// HttpDoer is the part of tls_client.HttpClient the session and notifier need.
type HttpDoer interface {
	Do(req *fhttp.Request) (*fhttp.Response, error)
}

// GetEdge129Profile matches the browser the device descriptor claims to be (Edge 129 on Win32).
func GetEdge129Profile() profiles.ClientProfile {
	ja3 := "771,4865-4866-4867-49195-49199-49196-49200-52393-52392-49171-49172-156-157-47-53,0-23-65281-10-11-35-16-5-13-18-51-45-43-27-17513-65037,29-23-24,0"

	signatureAlgorithms := []string{
		"ECDSAWithP256AndSHA256",
		"PSSWithSHA256",
		"PKCS1WithSHA256",
		"ECDSAWithP384AndSHA384",
		"PSSWithSHA384",
		"PKCS1WithSHA384",
		"PSSWithSHA512",
		"PKCS1WithSHA512",
	}
	supportedVersions := []string{"GREASE", "1.3", "1.2"}
	supportedGroups := []string{"GREASE", "X25519", "secp256r1", "secp384r1"}

	alpnProtocols := []string{"h2", "http/1.1"}
	alpsProtocols := []string{"h2"}

	cipherSuites := []tls_client.CandidateCipherSuites{
		{
			KdfId:  "HKDF_SHA256",
			AeadId: "AEAD_AES_128_GCM",
		},
		{
			KdfId:  "HKDF_SHA256",
			AeadId: "AEAD_CHACHA20_POLY1305",
		},
	}

	curvePriorities := []uint16{128, 160, 192, 224}

	specFunc, err := tls_client.GetSpecFactoryFromJa3String(
		ja3, signatureAlgorithms, signatureAlgorithms, supportedVersions,
		supportedGroups, alpnProtocols, alpsProtocols, cipherSuites, curvePriorities, "brotli",
	)
	if err != nil {
		log.Warnf("failed to build Edge129 TLS spec, falling back to Chrome_124: %v", err)
		return profiles.Chrome_124
	}

	settings := map[http2.SettingID]uint32{
		http2.SettingHeaderTableSize:   65536,
		http2.SettingEnablePush:        0,
		http2.SettingInitialWindowSize: 6291456,
		http2.SettingMaxHeaderListSize: 262144,
	}
	settingsOrder := []http2.SettingID{
		http2.SettingHeaderTableSize,
		http2.SettingEnablePush,
		http2.SettingInitialWindowSize,
		http2.SettingMaxHeaderListSize,
	}

	pseudoHeaderOrder := []string{
		":method",
		":authority",
		":scheme",
		":path",
	}

	return profiles.NewClientProfile(
		tls.ClientHelloID{
			Client:      "Edge129",
			Version:     "1",
			Seed:        nil,
			SpecFactory: specFunc,
		},
		settings,
		settingsOrder,
		pseudoHeaderOrder,
		uint32(15663105),
		nil,
		nil,
	)
}

// NewHttpClient builds the client shared by one account's session. proxy may be empty.
func NewHttpClient(proxy string) (tls_client.HttpClient, error) {
	jar := tls_client.NewCookieJar()
	options := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(DefaultTimeoutSeconds),
		tls_client.WithClientProfile(GetEdge129Profile()),
		tls_client.WithCookieJar(jar),
		tls_client.WithRandomTLSExtensionOrder(),
	}
	if proxy != "" {
		options = append(options, tls_client.WithProxyUrl(proxy))
	}

	client, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
	if err != nil {
		log.Errorf("Failed to create client: %v", err)
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}
