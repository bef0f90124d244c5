// Package crawlers 提供链接验证和频道消息爬取功能
//
// # 概述
//
// crawlers包实现两个引擎: 有界并发的链接验证器(LinkVerifier)和按时间窗口分页的
// 频道爬取器(ChannelCrawler),以及它们共用的URL提取器。
//
// # 核心组件
//
// ## URL提取器
//
// URL定义为以 http:// 或 https:// 开头的连续非空白字符串,不做规范化。
//
//	u, ok := FirstURL("见 https://example.com/a 说明") // "https://example.com/a", true
//	all := AllURLs(message.Text)
//
// ## LinkVerifier (链接验证器)
//
// 唯一URL集合分派到固定大小的WorkerPool,每个URL只抓取一次,结果按URL写入map,
// 完成顺序不影响结果。工作池默认大小 = 逻辑核心数 * 4,受可用内存和max_workers限制
// (见ResourceMonitor)。
//
//	fetcher := NewFetcher(FetcherConfig{Headers: headers}, logger)
//	verifier := NewLinkVerifier(fetcher, VerifierOptions{Workers: 16}, logger)
//	results, err := verifier.Verify(ctx, urls)
//
// 分类规则:
//   - 连接失败(DNS、拒绝连接、超时): Status "0", Server "ConnectionError", 其余为空
//   - Status为状态码, Server为Server头部
//   - 发生重定向时Redirect为最终URL,否则为空
//   - HTML响应: goquery解析 <title> 与 og:description
//   - 非HTML或解析失败: 降级为原始内容中查找 <title> 标记,失败时标题为 "?"
//
// ## Fetcher (抓取器)
//
//   - HTTPFetcher: net/http实现,默认跳过证书验证,请求随ctx取消而中止
//   - CollyFetcher: 配置cache_dir时使用,响应缓存在磁盘上,重复运行不再访问网络
//
// 响应体按Content-Encoding(gzip, deflate, br)解压,HTML按声明的字符集转换为UTF-8。
//
// ## ChannelCrawler (频道爬取器)
//
// 频道按登记顺序依次爬取,每个频道内按批次从新到旧请求消息:
//
//	crawler := NewChannelCrawler(source, CrawlerOptions{WindowHours: 36}, logger)
//	result, err := crawler.Crawl(ctx, registry)
//
// 每批结束后检查停止条件: 最旧消息早于 now-WindowHours、达到MaxBatches、
// 批次为空或批次未推进游标。否则以最旧消息ID作为下一批的max_id。
//
// # 错误处理
//
//   - 单个URL不可达: 记录哨兵结果,不重试,不中断运行
//   - 单个频道失败(含频道不存在): 记录警告,该频道不产生记录,继续下一个频道
//   - ctx取消: 两个引擎都返回已完成的部分结果和ctx.Err()
//
// # 并发安全
//
//   - WorkerPool: 任务channel + sync.WaitGroup,结果map由sync.Mutex保护
//   - HTTPFetcher/CollyFetcher: 可被多个worker并发调用
//   - ChannelCrawler: 顺序执行,不应并发调用同一实例的Crawl
package crawlers
