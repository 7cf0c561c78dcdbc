package registry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/pinmirror/internal/versions"
)

const (
	// DefaultBaseURLConstant is the public npm registry.
	DefaultBaseURLConstant = "https://registry.npmjs.org"
	// DefaultTimeoutConstant bounds the single registry request.
	DefaultTimeoutConstant = 30 * time.Second

	abbreviatedMetadataMediaTypeConstant = "application/vnd.npm.install-v1+json"
	acceptHeaderNameConstant             = "Accept"
	userAgentHeaderNameConstant          = "User-Agent"
	defaultUserAgentConstant             = "pinmirror"
	packagePathSeparatorConstant         = "/"
	packageNameRequiredMessageConstant   = "package name must be provided"
	loggerMissingMessageConstant         = "registry client logger not configured"
	requestBuildErrorTemplateConstant    = "unable to build registry request: %w"
	baseURLParseErrorTemplateConstant    = "invalid registry base url %q: %w"
	bodyReadErrorTemplateConstant        = "unable to read registry response: %w"
	fetchStartedMessageConstant          = "fetching package versions"
	fetchCompletedMessageConstant        = "fetched package versions"
	prereleaseSkippedMessageConstant     = "skipping pre-release version"
	malformedSkippedMessageConstant      = "skipping version that is not dotted numeric"
	logFieldPackageConstant              = "package"
	logFieldURLConstant                  = "url"
	logFieldVersionConstant              = "version"
	logFieldPublishedCountConstant       = "published_count"
	logFieldReleasedCountConstant        = "released_count"
	logFieldReasonConstant               = "reason"
)

// ErrPackageNameRequired indicates FetchVersions was called without a package name.
var ErrPackageNameRequired = errors.New(packageNameRequiredMessageConstant)

// ErrLoggerNotConfigured indicates the client was constructed without a logger.
var ErrLoggerNotConfigured = errors.New(loggerMissingMessageConstant)

// HTTPClient is the subset of *http.Client used by the registry client.
type HTTPClient interface {
	Do(request *http.Request) (*http.Response, error)
}

// ClientConfiguration describes where and how the registry is queried.
type ClientConfiguration struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Client retrieves the published versions of a package from an npm-compatible registry.
type Client struct {
	logger        *zap.Logger
	httpClient    HTTPClient
	configuration ClientConfiguration
	validator     *payloadValidator
}

// NewClient constructs a registry client. A nil httpClient yields an *http.Client honoring the configured timeout.
func NewClient(logger *zap.Logger, httpClient HTTPClient, configuration ClientConfiguration) (*Client, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}

	configuration.BaseURL = strings.TrimRight(strings.TrimSpace(configuration.BaseURL), packagePathSeparatorConstant)
	if len(configuration.BaseURL) == 0 {
		configuration.BaseURL = DefaultBaseURLConstant
	}
	if _, parseError := url.ParseRequestURI(configuration.BaseURL); parseError != nil {
		return nil, fmt.Errorf(baseURLParseErrorTemplateConstant, configuration.BaseURL, parseError)
	}
	if configuration.Timeout <= 0 {
		configuration.Timeout = DefaultTimeoutConstant
	}
	if len(strings.TrimSpace(configuration.UserAgent)) == 0 {
		configuration.UserAgent = defaultUserAgentConstant
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: configuration.Timeout}
	}

	validator, validatorError := newPayloadValidator()
	if validatorError != nil {
		return nil, validatorError
	}

	return &Client{
		logger:        logger,
		httpClient:    httpClient,
		configuration: configuration,
		validator:     validator,
	}, nil
}

// FetchVersions returns every released (non pre-release) version of the package, ascending.
func (client *Client) FetchVersions(executionContext context.Context, packageName string) ([]versions.Version, error) {
	trimmedPackageName := strings.TrimSpace(packageName)
	if len(trimmedPackageName) == 0 {
		return nil, ErrPackageNameRequired
	}

	requestURL := client.packageURL(trimmedPackageName)
	client.logger.Debug(fetchStartedMessageConstant, zap.String(logFieldPackageConstant, trimmedPackageName), zap.String(logFieldURLConstant, requestURL))

	responseBody, fetchError := client.fetch(executionContext, requestURL)
	if fetchError != nil {
		return nil, fetchError
	}

	publishedVersions, decodeError := client.validator.decodeVersionKeys(requestURL, responseBody)
	if decodeError != nil {
		return nil, decodeError
	}

	releasedVersions := make([]versions.Version, 0, len(publishedVersions))
	for _, versionText := range publishedVersions {
		if versions.IsPrerelease(versionText) {
			client.logger.Debug(prereleaseSkippedMessageConstant, zap.String(logFieldVersionConstant, versionText))
			continue
		}
		parsedVersion, parseError := versions.Parse(versionText)
		if parseError != nil {
			client.logger.Warn(malformedSkippedMessageConstant, zap.String(logFieldVersionConstant, versionText), zap.String(logFieldReasonConstant, parseError.Error()))
			continue
		}
		releasedVersions = append(releasedVersions, parsedVersion)
	}
	versions.Sort(releasedVersions)

	client.logger.Info(
		fetchCompletedMessageConstant,
		zap.String(logFieldPackageConstant, trimmedPackageName),
		zap.Int(logFieldPublishedCountConstant, len(publishedVersions)),
		zap.Int(logFieldReleasedCountConstant, len(releasedVersions)),
	)

	return releasedVersions, nil
}

func (client *Client) fetch(executionContext context.Context, requestURL string) ([]byte, error) {
	request, requestError := http.NewRequestWithContext(executionContext, http.MethodGet, requestURL, nil)
	if requestError != nil {
		return nil, fmt.Errorf(requestBuildErrorTemplateConstant, requestError)
	}
	request.Header.Set(acceptHeaderNameConstant, abbreviatedMetadataMediaTypeConstant)
	request.Header.Set(userAgentHeaderNameConstant, client.configuration.UserAgent)

	response, responseError := client.httpClient.Do(request)
	if responseError != nil {
		return nil, NetworkError{URL: requestURL, Cause: responseError}
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, response.Body)
		return nil, NetworkError{URL: requestURL, StatusCode: response.StatusCode}
	}

	var bodyBuffer bytes.Buffer
	if _, readError := io.Copy(&bodyBuffer, response.Body); readError != nil {
		return nil, NetworkError{URL: requestURL, StatusCode: response.StatusCode, Cause: fmt.Errorf(bodyReadErrorTemplateConstant, readError)}
	}

	return bodyBuffer.Bytes(), nil
}

// packageURL escapes the scope separator of "@scope/name" so the registry sees a single path segment.
func (client *Client) packageURL(packageName string) string {
	return client.configuration.BaseURL + packagePathSeparatorConstant + url.PathEscape(packageName)
}
