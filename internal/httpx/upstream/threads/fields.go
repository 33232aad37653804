package threads

// Field names requested from the Graph API
const (
	FieldID                       = "id"
	FieldUsername                 = "username"
	FieldText                     = "text"
	FieldMediaType                = "media_type"
	FieldMediaProductType         = "media_product_type"
	FieldMediaURL                 = "media_url"
	FieldThumbnailURL             = "thumbnail_url"
	FieldPermalink                = "permalink"
	FieldShortcode                = "shortcode"
	FieldTimestamp                = "timestamp"
	FieldIsReply                  = "is_reply"
	FieldIsQuotePost              = "is_quote_post"
	FieldReplyAudience            = "reply_audience"
	FieldAltText                  = "alt_text"
	FieldLinkAttachmentURL        = "link_attachment_url"
	FieldGIFURL                   = "gif_url"
	FieldHideStatus               = "hide_status"
	FieldStatus                   = "status"
	FieldErrorMessage             = "error_message"
	FieldThreadsProfilePictureURL = "threads_profile_picture_url"
	FieldThreadsBiography         = "threads_biography"
	FieldQuotaUsage               = "quota_usage"
	FieldConfig                   = "config"
	FieldReplyQuotaUsage          = "reply_quota_usage"
	FieldReplyConfig              = "reply_config"

	fieldChildren     = "children{media_type,media_url,alt_text,thumbnail_url}"
	fieldQuotedPost   = "quoted_post{id,permalink,text,media_type,media_url,username,shortcode,thumbnail_url,alt_text," + fieldChildren + "}"
	fieldRepostedPost = "reposted_post{id,username,shortcode,permalink}"
)

var (
	ProfileFields = []string{FieldID, FieldUsername, FieldThreadsProfilePictureURL, FieldThreadsBiography}

	ThreadFields = []string{
		FieldID, FieldText, FieldMediaType, FieldMediaURL, FieldPermalink, FieldTimestamp,
		FieldIsReply, FieldUsername, FieldReplyAudience, FieldAltText, FieldLinkAttachmentURL,
	}

	ThreadListFields = []string{
		FieldID, FieldText, FieldMediaType, FieldMediaURL, FieldPermalink, FieldTimestamp,
		FieldReplyAudience, FieldAltText,
	}

	UserReplyFields = []string{
		FieldID, FieldText, FieldMediaType, FieldMediaURL, FieldPermalink, FieldTimestamp, FieldReplyAudience,
	}

	ReplyFields = []string{
		FieldID, FieldText, FieldMediaType, FieldMediaURL, FieldPermalink, FieldTimestamp,
		FieldUsername, FieldHideStatus, FieldAltText,
	}

	MentionFields = []string{
		FieldID, FieldUsername, FieldText, FieldMediaType, FieldMediaURL, FieldPermalink,
		FieldTimestamp, FieldReplyAudience, FieldAltText,
	}

	SearchFields = []string{
		FieldUsername, FieldID, FieldTimestamp, FieldMediaType, FieldText, FieldPermalink, FieldReplyAudience,
	}

	// ReplyChainFields are requested while walking self-authored reply trees
	ReplyChainFields = []string{
		FieldID, FieldText, FieldMediaType, FieldMediaURL, FieldPermalink, FieldTimestamp,
		FieldUsername, FieldReplyAudience,
	}

	// AggregateFields are requested by bulk aggregation, including nested
	// carousel children and quoted/reposted references
	AggregateFields = []string{
		FieldID, FieldMediaProductType, FieldMediaType, FieldMediaURL, FieldPermalink,
		FieldUsername, FieldText, FieldTimestamp, FieldShortcode, FieldThumbnailURL,
		fieldChildren, FieldIsQuotePost, fieldQuotedPost, fieldRepostedPost,
		FieldAltText, FieldLinkAttachmentURL, FieldGIFURL,
	}

	ContainerStatusFields = []string{FieldID, FieldStatus, FieldErrorMessage}

	PublishingLimitFields = []string{FieldQuotaUsage, FieldConfig, FieldReplyQuotaUsage, FieldReplyConfig}
)
