package page

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/golang/glog"
)


const defaultHttpTimeout = 60 * time.Second
const defaultHttpConnectTimeout = 5 * time.Second
const defaultHttpTlsTimeout = 5 * time.Second


func defaultClient() *http.Client {
	// see https://medium.com/@nate510/don-t-use-go-s-default-http-client-4804cb19f779
	dialer := &net.Dialer{
		Timeout: defaultHttpConnectTimeout,
	}
	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: defaultHttpTlsTimeout,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   defaultHttpTimeout,
	}
}


type apiCallback[R any] interface {
	Result(result R, err error)
}


type simpleApiCallback[R any] struct {
	callback func(result R, err error)
}

func NewApiCallback[R any](callback func(result R, err error)) apiCallback[R] {
	return &simpleApiCallback[R]{
		callback: callback,
	}
}

func NewNoopApiCallback[R any]() apiCallback[R] {
	return &simpleApiCallback[R]{
		callback: func(result R, err error) {},
	}
}

func (self *simpleApiCallback[R]) Result(result R, err error) {
	self.callback(result, err)
}


// the http side of a page server
type PageApi struct {
	ctx    context.Context
	cancel context.CancelFunc

	apiUrl string
	auth   *ClientAuth

	client *http.Client
}

func NewPageApi(ctx context.Context, apiUrl string, auth *ClientAuth) *PageApi {
	cancelCtx, cancel := context.WithCancel(ctx)

	return &PageApi{
		ctx:    cancelCtx,
		cancel: cancel,
		apiUrl: apiUrl,
		auth:   auth,
		client: defaultClient(),
	}
}

func (self *PageApi) ApiUrl() string {
	return self.apiUrl
}

func (self *PageApi) Close() {
	self.cancel()
}


type InitialStateCallback apiCallback[*Snapshot]

func (self *PageApi) InitialState(callback InitialStateCallback) {
	go get(
		self.ctx,
		self.client,
		fmt.Sprintf("%s/initial-state", self.apiUrl),
		self.auth.ByJwt(),
		&Snapshot{},
		callback,
	)
}

func (self *PageApi) InitialStateSync(ctx context.Context) (*Snapshot, error) {
	return get(
		ctx,
		self.client,
		fmt.Sprintf("%s/initial-state", self.apiUrl),
		self.auth.ByJwt(),
		&Snapshot{},
		NewNoopApiCallback[*Snapshot](),
	)
}


// the raw `/export` response. The body is html or json depending on the server.
type ExportResponse struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

func (self *ExportResponse) Ok() bool {
	return 200 <= self.StatusCode && self.StatusCode < 300
}

func (self *ExportResponse) IsJson() bool {
	mediaType, _, err := mime.ParseMediaType(self.ContentType)
	return err == nil && mediaType == "application/json"
}

func (self *PageApi) Export(ctx context.Context) (*ExportResponse, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/export", self.apiUrl), nil)
	if err != nil {
		return nil, err
	}
	addAuthHeader(req.Header, self.auth.ByJwt())

	r, err := self.client.Do(req)
	if err != nil {
		glog.Infof("[a]export error = %s\n", err)
		return nil, err
	}
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	return &ExportResponse{
		StatusCode:  r.StatusCode,
		ContentType: r.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}


func addAuthHeader(header http.Header, byJwt string) {
	if byJwt != "" {
		header.Add("Authorization", fmt.Sprintf("Bearer %s", byJwt))
	}
}

func get[R any](ctx context.Context, client *http.Client, url string, byJwt string, result R, callback apiCallback[R]) (R, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		var empty R
		callback.Result(empty, err)
		return empty, err
	}

	req.Header.Add("Accept", "application/json")
	addAuthHeader(req.Header, byJwt)

	r, err := client.Do(req)
	if err != nil {
		glog.Infof("[a]get %s error = %s\n", url, err)
		var empty R
		callback.Result(empty, err)
		return empty, err
	}

	responseBodyBytes, err := io.ReadAll(r.Body)
	r.Body.Close()
	if err != nil {
		var empty R
		callback.Result(empty, err)
		return empty, err
	}

	if r.StatusCode < 200 || 300 <= r.StatusCode {
		// the response body is the error message
		err = fmt.Errorf("%s: %s", r.Status, strings.TrimSpace(string(responseBodyBytes)))
		var empty R
		callback.Result(empty, err)
		return empty, err
	}

	err = json.Unmarshal(responseBodyBytes, &result)
	if err != nil {
		var empty R
		callback.Result(empty, err)
		return empty, err
	}

	glog.V(LogLevelTrace).Infof("[a]get %s\n", url)
	callback.Result(result, nil)
	return result, nil
}
